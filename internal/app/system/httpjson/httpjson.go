// internal/app/system/httpjson/httpjson.go
package httpjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxBodyBytes caps request bodies to keep a hostile client from
// feeding the decoder an unbounded document.
const maxBodyBytes = 1 << 20 // 1 MiB

// errorBody is the envelope every API error uses:
//
//	{"message": "Invalid credentials."}
type errorBody struct {
	Message string `json:"message"`
}

// Write marshals v and writes it with the given status code.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a JSON error envelope with the given status code.
func Error(w http.ResponseWriter, status int, msg string) {
	Write(w, status, errorBody{Message: msg})
}

// Decode reads the request body into dst. Unknown fields are rejected
// so typos in client payloads fail loudly instead of silently dropping
// data. The returned error message is safe to show to callers.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var syn *json.SyntaxError
		var typ *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		case errors.As(err, &syn):
			return fmt.Errorf("malformed JSON at offset %d", syn.Offset)
		case errors.As(err, &typ):
			return fmt.Errorf("invalid value for field %q", typ.Field)
		default:
			return errors.New("could not parse request body")
		}
	}
	// A second document after the first is a malformed request.
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
