// internal/app/features/profile/handler.go
//
// Package profile serves the customer profile and shipping address.
// Sellers have no customer profile; they get 403 here.
package profile

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/exoticc/storeapi/internal/app/system/auth"
	"github.com/exoticc/storeapi/internal/app/system/httpjson"
	"github.com/exoticc/storeapi/internal/app/system/inputval"
	"github.com/exoticc/storeapi/internal/app/system/timeouts"
	"github.com/exoticc/storeapi/internal/domain/models"
)

// CustomerAccounts is the slice of the customer store this feature
// needs.
type CustomerAccounts interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error)
	UpdateAddress(ctx context.Context, id primitive.ObjectID, in models.Address) (*models.Customer, error)
}

type Handler struct {
	Customers CustomerAccounts
	Log       *zap.Logger
}

func NewHandler(customerStore CustomerAccounts, log *zap.Logger) *Handler {
	return &Handler{Customers: customerStore, Log: log}
}

type profileResponse struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Email   string          `json:"email"`
	Role    models.Role     `json:"role"`
	Address *models.Address `json:"address,omitempty"`
}

// ServeProfile handles GET /api/auth/profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	u, id, ok := h.customer(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Customers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "User profile not found")
			return
		}
		h.Log.Error("profile load failed", zap.String("customer_id", u.ID), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Server Error")
		return
	}

	httpjson.Write(w, http.StatusOK, profileResponse{
		ID:      c.ID.Hex(),
		Name:    c.Name,
		Email:   c.Email,
		Role:    models.RoleCustomer,
		Address: c.Address,
	})
}

type addressRequest struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	Pincode string `json:"pincode"`
}

// ServeUpdateAddress handles PUT /api/auth/profile/address.
//
// Fields merge: an empty incoming field keeps the stored value, so a
// caller can update just the pincode without resending the street.
func (h *Handler) ServeUpdateAddress(w http.ResponseWriter, r *http.Request) {
	u, id, ok := h.customer(w, r)
	if !ok {
		return
	}

	var req addressRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	req.Street = strings.TrimSpace(req.Street)
	req.City = strings.TrimSpace(req.City)
	req.Pincode = strings.TrimSpace(req.Pincode)
	if req.Pincode != "" && !inputval.IsValidPincode(req.Pincode) {
		httpjson.Error(w, http.StatusBadRequest, "Valid pincode is required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Customers.UpdateAddress(ctx, id, models.Address{
		Street:  req.Street,
		City:    req.City,
		Pincode: req.Pincode,
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "User not found")
			return
		}
		h.Log.Error("address update failed", zap.String("customer_id", u.ID), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Server Error")
		return
	}

	httpjson.Write(w, http.StatusOK, profileResponse{
		ID:      c.ID.Hex(),
		Name:    c.Name,
		Email:   c.Email,
		Role:    models.RoleCustomer,
		Address: c.Address,
	})
}

// customer resolves the signed-in customer, writing the error response
// itself when the caller is anonymous, a seller, or carries a mangled
// id.
func (h *Handler) customer(w http.ResponseWriter, r *http.Request) (*auth.SessionUser, primitive.ObjectID, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not authenticated")
		return nil, primitive.NilObjectID, false
	}
	if u.Role != models.RoleCustomer {
		httpjson.Error(w, http.StatusForbidden, "Sellers do not have a customer profile")
		return nil, primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		httpjson.Error(w, http.StatusUnauthorized, "Not authenticated")
		return nil, primitive.NilObjectID, false
	}
	return u, id, true
}
