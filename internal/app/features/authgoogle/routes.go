// internal/app/features/authgoogle/routes.go
package authgoogle

import "github.com/go-chi/chi/v5"

// MountRoutes registers the Google sign-in endpoint. The router is
// expected to be mounted at /api/auth.
func MountRoutes(r chi.Router, h *Handler) {
	r.Post("/google", h.ServeGoogleLogin)
}
