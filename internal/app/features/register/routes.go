// internal/app/features/register/routes.go
package register

import "github.com/go-chi/chi/v5"

// MountRoutes registers the OTP registration endpoints. The router is
// expected to be mounted at /api/auth.
func MountRoutes(r chi.Router, h *Handler) {
	r.Post("/send-otp", h.ServeSendOTP)
	r.Post("/verify-otp-register", h.ServeVerifyRegister)
}
