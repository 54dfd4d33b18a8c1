// internal/app/features/register/handler.go
//
// Package register owns the two-step OTP registration endpoints:
// POST /send-otp issues a verification code, POST /verify-otp-register
// finalizes the account and signs the caller in.
package register

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/exoticc/storeapi/internal/app/system/auth"
	"github.com/exoticc/storeapi/internal/app/system/httpjson"
	"github.com/exoticc/storeapi/internal/app/system/inputval"
	"github.com/exoticc/storeapi/internal/app/system/normalize"
	"github.com/exoticc/storeapi/internal/app/system/ratelimit"
	"github.com/exoticc/storeapi/internal/app/system/signup"
	"github.com/exoticc/storeapi/internal/app/system/timeouts"
	"github.com/exoticc/storeapi/internal/domain/models"
)

type Handler struct {
	Flow     *signup.Flow
	Sessions *auth.Manager
	Codes    *ratelimit.CodeLimiter
	Log      *zap.Logger
}

func NewHandler(flow *signup.Flow, sessions *auth.Manager, codes *ratelimit.CodeLimiter, log *zap.Logger) *Handler {
	return &Handler{Flow: flow, Sessions: sessions, Codes: codes, Log: log}
}

type sendOTPRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// ServeSendOTP handles POST /api/auth/send-otp.
func (h *Handler) ServeSendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	email := normalize.Email(req.Email)
	if !inputval.IsValidEmail(email) {
		httpjson.Error(w, http.StatusBadRequest, "A valid email is required to send OTP.")
		return
	}
	role, ok := parseRole(req.Role)
	if !ok {
		httpjson.Error(w, http.StatusBadRequest, "Invalid role specified.")
		return
	}

	if allowed, reason := h.Codes.Check(r, email); !allowed {
		httpjson.Error(w, http.StatusTooManyRequests, reason)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	err := h.Flow.IssueCode(ctx, role, email)
	switch {
	case err == nil:
		httpjson.Write(w, http.StatusOK, map[string]string{"message": "OTP sent successfully to your email."})
	case errors.Is(err, signup.ErrAlreadyVerified):
		httpjson.Error(w, http.StatusConflict, "Email already registered and verified.")
	default:
		// Delivery failures are already logged by the flow.
		var de *signup.DeliveryError
		if !errors.As(err, &de) {
			h.Log.Error("send otp failed", zap.String("email", email), zap.Error(err))
		}
		httpjson.Error(w, http.StatusInternalServerError, "Failed to send OTP.")
	}
}

type verifyRegisterRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	OTP       string `json:"otp"`
	Role      string `json:"role"`
	StoreName string `json:"storeName"`
}

type customerProfile struct {
	ID      string          `json:"id"`
	Email   string          `json:"email"`
	Name    string          `json:"name"`
	Role    models.Role     `json:"role"`
	Address *models.Address `json:"address"`
}

type sellerProfile struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	StoreName string      `json:"storeName"`
	Role      models.Role `json:"role"`
}

// ServeVerifyRegister handles POST /api/auth/verify-otp-register.
//
// Validation happens before any store is touched and the first failure
// wins, so a request with a bad password never consumes the code.
func (h *Handler) ServeVerifyRegister(w http.ResponseWriter, r *http.Request) {
	var req verifyRegisterRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	name := normalize.Name(req.Name)
	email := normalize.Email(req.Email)
	role, roleOK := parseRole(req.Role)

	switch {
	case name == "":
		httpjson.Error(w, http.StatusBadRequest, "Name is required.")
		return
	case !inputval.IsValidEmail(email):
		httpjson.Error(w, http.StatusBadRequest, "Email must be valid.")
		return
	case !inputval.IsValidPassword(req.Password):
		httpjson.Error(w, http.StatusBadRequest, "Password must be at least 6 characters.")
		return
	case !inputval.IsValidOTP(req.OTP):
		httpjson.Error(w, http.StatusBadRequest, "OTP must be 6 digits.")
		return
	case !roleOK:
		httpjson.Error(w, http.StatusBadRequest, "Invalid role specified.")
		return
	}

	fin := signup.Finalization{Name: name}
	if role == models.RoleSeller {
		storeName := normalize.Name(req.StoreName)
		if storeName == "" {
			httpjson.Error(w, http.StatusBadRequest, "Store name is required for sellers.")
			return
		}
		fin.StoreName = storeName
		fin.StoreNameCI = normalize.Fold(storeName)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id, err := h.Flow.Finalize(ctx, role, email, req.OTP, req.Password, fin)
	switch {
	case err == nil:
		// fall through to session issuance
	case errors.Is(err, signup.ErrNotStarted):
		httpjson.Error(w, http.StatusNotFound, "Email not found or OTP process not initiated.")
		return
	case errors.Is(err, signup.ErrCodeExpired):
		httpjson.Error(w, http.StatusBadRequest, "OTP has expired. Please request a new one.")
		return
	case errors.Is(err, signup.ErrCodeMismatch):
		httpjson.Error(w, http.StatusBadRequest, "Invalid OTP.")
		return
	case errors.Is(err, signup.ErrAlreadyVerified):
		httpjson.Error(w, http.StatusConflict, "Email already verified.")
		return
	case errors.Is(err, signup.ErrStoreNameTaken):
		httpjson.Error(w, http.StatusConflict, "Store name is already in use.")
		return
	default:
		h.Log.Error("registration failed", zap.String("email", email), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Registration failed.")
		return
	}

	h.Codes.ResetEmail(email)

	if err := h.Sessions.Issue(w, id); err != nil {
		h.Log.Error("session issue failed", zap.String("account_id", id), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Registration failed.")
		return
	}

	if role == models.RoleSeller {
		httpjson.Write(w, http.StatusCreated, sellerProfile{
			ID:        id,
			Email:     email,
			StoreName: fin.StoreName,
			Role:      models.RoleSeller,
		})
		return
	}
	// A fresh customer has no saved address yet; clients still get the
	// field as an empty object rather than null.
	httpjson.Write(w, http.StatusCreated, customerProfile{
		ID:      id,
		Email:   email,
		Name:    name,
		Role:    models.RoleCustomer,
		Address: &models.Address{},
	})
}

// parseRole maps the optional role field. Empty means Customer.
func parseRole(s string) (models.Role, bool) {
	switch s {
	case "", string(models.RoleCustomer):
		return models.RoleCustomer, true
	case string(models.RoleSeller):
		return models.RoleSeller, true
	default:
		return "", false
	}
}
