// internal/app/features/authgoogle/handler.go
//
// Package authgoogle owns the Google sign-in endpoint. Federated login
// is customer-only: sellers always register through the OTP flow.
package authgoogle

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/exoticc/storeapi/internal/app/system/auth"
	"github.com/exoticc/storeapi/internal/app/system/googleauth"
	"github.com/exoticc/storeapi/internal/app/system/httpjson"
	"github.com/exoticc/storeapi/internal/app/system/normalize"
	"github.com/exoticc/storeapi/internal/app/system/timeouts"
	"github.com/exoticc/storeapi/internal/domain/models"
)

// CustomerAccounts is the slice of the customer store the Google flow
// needs.
type CustomerAccounts interface {
	GetByGoogleID(ctx context.Context, googleID string) (*models.Customer, error)
	GetByEmail(ctx context.Context, email string) (*models.Customer, error)
	LinkGoogle(ctx context.Context, id primitive.ObjectID, googleID string) error
	CreateFromGoogle(ctx context.Context, email, name, googleID string) (*models.Customer, error)
}

type Handler struct {
	Verifier  googleauth.Verifier
	Customers CustomerAccounts
	Sessions  *auth.Manager
	Log       *zap.Logger
}

func NewHandler(verifier googleauth.Verifier, customerStore CustomerAccounts, sessions *auth.Manager, log *zap.Logger) *Handler {
	return &Handler{Verifier: verifier, Customers: customerStore, Sessions: sessions, Log: log}
}

type googleLoginRequest struct {
	Token string `json:"token"`
}

type profile struct {
	ID      string          `json:"id"`
	Email   string          `json:"email"`
	Name    string          `json:"name"`
	Role    models.Role     `json:"role"`
	Address *models.Address `json:"address,omitempty"`
}

// ServeGoogleLogin handles POST /api/auth/google.
//
// Resolution order: google id match, then email match (which links the
// google id to the existing account), then a fresh pre-verified
// customer. The first two answer 200, a fresh account answers 201.
func (h *Handler) ServeGoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		httpjson.Error(w, http.StatusBadRequest, "Google ID Token required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	info, err := h.Verifier.Verify(ctx, req.Token)
	if err != nil {
		if errors.Is(err, googleauth.ErrInvalidToken) {
			httpjson.Error(w, http.StatusUnauthorized, "Google token could not be verified.")
			return
		}
		h.Log.Error("google token verification failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Server error during Google authentication.")
		return
	}

	email := normalize.Email(info.Email)

	// Returning federated user.
	c, err := h.Customers.GetByGoogleID(ctx, info.Subject)
	switch {
	case err == nil:
		h.respond(w, http.StatusOK, c)
		return
	case !errors.Is(err, mongo.ErrNoDocuments):
		h.serverError(w, email, err)
		return
	}

	// Existing password account: link the Google identity to it.
	c, err = h.Customers.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := h.Customers.LinkGoogle(ctx, c.ID, info.Subject); err != nil {
			h.serverError(w, email, err)
			return
		}
		h.respond(w, http.StatusOK, c)
		return
	case !errors.Is(err, mongo.ErrNoDocuments):
		h.serverError(w, email, err)
		return
	}

	// First sight of this identity: create a pre-verified customer.
	name := normalize.Name(info.Name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	c, err = h.Customers.CreateFromGoogle(ctx, email, name, info.Subject)
	if err != nil {
		h.serverError(w, email, err)
		return
	}
	h.respond(w, http.StatusCreated, c)
}

func (h *Handler) respond(w http.ResponseWriter, status int, c *models.Customer) {
	id := c.ID.Hex()
	if err := h.Sessions.Issue(w, id); err != nil {
		h.Log.Error("session issue failed", zap.String("account_id", id), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Server error during Google authentication.")
		return
	}
	httpjson.Write(w, status, profile{
		ID:      id,
		Email:   c.Email,
		Name:    c.Name,
		Role:    models.RoleCustomer,
		Address: c.Address,
	})
}

func (h *Handler) serverError(w http.ResponseWriter, email string, err error) {
	h.Log.Error("google login failed", zap.String("email", email), zap.Error(err))
	httpjson.Error(w, http.StatusInternalServerError, "Server error during Google authentication.")
}
