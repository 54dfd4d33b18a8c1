// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

// MountRoutes registers the sign-in endpoints. The router is expected
// to be mounted at /api/auth.
func MountRoutes(r chi.Router, h *Handler) {
	r.Post("/login", h.ServeLogin)
	r.Post("/logout", h.ServeLogout)
	r.Get("/status", h.ServeStatus)
}
