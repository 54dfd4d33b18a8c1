// internal/app/features/orders/routes.go
package orders

import "github.com/go-chi/chi/v5"

// MountRoutes registers the order endpoints. The router is expected to
// be mounted at /api/orders and already wrapped in RequireSignedIn.
func MountRoutes(r chi.Router, h *Handler) {
	r.Post("/", h.ServePlaceOrder)
	r.Get("/", h.ServeList)
	r.Put("/{id}/cancel", h.ServeCancel)
}
