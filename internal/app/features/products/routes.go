// internal/app/features/products/routes.go
package products

import "github.com/go-chi/chi/v5"

// MountRoutes registers the catalog endpoints. The router is expected
// to be mounted at /api/products with the session middleware already
// applied; role checks happen in the handlers.
//
// /seller must be registered before /{id} so it is not swallowed by
// the id parameter.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/seller", h.ServeSellerList)
	r.Get("/{id}", h.ServeGet)
	r.Get("/", h.ServeList)
	r.Post("/", h.ServeCreate)
	r.Put("/{id}", h.ServeUpdate)
	r.Delete("/{id}", h.ServeDelete)
}
