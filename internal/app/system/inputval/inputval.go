// internal/app/system/inputval/inputval.go
//
// Package inputval validates user-supplied values. It answers "is this
// value acceptable at all"; normalization (trim/fold) happens in the
// normalize package before values get here.
package inputval

import (
	"net/mail"
	"strings"
	"unicode"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Password policy. Only a minimum length is enforced; composition
// rules push people toward predictable substitutions.
const MinPasswordLen = 6

// IsValidEmail reports whether s is a plausible email address.
// It uses RFC 5322 address parsing, which rejects the malformed shapes
// a naive regex lets through (leading/trailing dots, doubled dots,
// embedded spaces) while still accepting single-label domains that are
// useful in dev environments.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	// Reject display-name forms like `User <user@example.com>`;
	// we want the bare address only.
	return addr.Address == s
}

// IsValidPassword reports whether pw meets the minimum length and
// contains no control characters.
func IsValidPassword(pw string) bool {
	if len(pw) < MinPasswordLen {
		return false
	}
	for _, r := range pw {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// IsValidObjectID reports whether s is a well-formed Mongo ObjectID hex
// string. Used to validate path parameters before hitting the database.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	return err == nil
}

// IsValidPincode reports whether s is a postal code of 5 to 10 digits.
func IsValidPincode(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 5 || len(s) > 10 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsValidOTP reports whether s is a six-digit verification code.
func IsValidOTP(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
