// internal/app/features/payments/routes.go
package payments

import "github.com/go-chi/chi/v5"

// MountRoutes registers the payment endpoints. The router is expected
// to be mounted at /api/payment and already wrapped in RequireSignedIn.
func MountRoutes(r chi.Router, h *Handler) {
	r.Post("/checkout", h.ServeCheckout)
	r.Post("/verify", h.ServeVerify)
}
