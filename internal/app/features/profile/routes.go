// internal/app/features/profile/routes.go
package profile

import "github.com/go-chi/chi/v5"

// MountRoutes registers the profile endpoints. The router is expected
// to be mounted at /api/auth and already wrapped in RequireSignedIn.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/profile", h.ServeProfile)
	r.Put("/profile/address", h.ServeUpdateAddress)
}
