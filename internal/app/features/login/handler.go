// internal/app/features/login/handler.go
//
// Package login owns password sign-in and the session status endpoint.
// The same credentials endpoint serves both sides of the marketplace:
// the customer collection is tried first, then sellers.
package login

import (
	"context"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/exoticc/storeapi/internal/app/system/auth"
	"github.com/exoticc/storeapi/internal/app/system/httpjson"
	"github.com/exoticc/storeapi/internal/app/system/inputval"
	"github.com/exoticc/storeapi/internal/app/system/normalize"
	"github.com/exoticc/storeapi/internal/app/system/timeouts"
	"github.com/exoticc/storeapi/internal/domain/models"
)

// CustomerSource and SellerSource are the store lookups the login path
// needs. The mongo stores satisfy them; tests use in-memory fakes.
type CustomerSource interface {
	GetByEmail(ctx context.Context, email string) (*models.Customer, error)
}

type SellerSource interface {
	GetByEmail(ctx context.Context, email string) (*models.Seller, error)
}

type Handler struct {
	Customers CustomerSource
	Sellers   SellerSource
	Sessions  *auth.Manager
	Log       *zap.Logger
}

func NewHandler(customerStore CustomerSource, sellerStore SellerSource, sessions *auth.Manager, log *zap.Logger) *Handler {
	return &Handler{Customers: customerStore, Sellers: sellerStore, Sessions: sessions, Log: log}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// account is the slice of either record the login path needs.
type account struct {
	id           string
	email        string
	name         string
	storeName    string
	passwordHash string
	verified     bool
	role         models.Role
	address      *models.Address
}

type customerProfile struct {
	ID      string          `json:"id"`
	Email   string          `json:"email"`
	Name    string          `json:"name"`
	Role    models.Role     `json:"role"`
	Address *models.Address `json:"address,omitempty"`
}

type sellerProfile struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	StoreName string      `json:"storeName"`
	Role      models.Role `json:"role"`
}

// ServeLogin handles POST /api/auth/login.
//
// Failure modes are deliberately distinct: unknown email and wrong
// password share the generic invalid-credentials message, but a
// passwordless (Google-only or still-pending) account gets its own
// message so the caller knows which flow to use, and an unverified
// account is told to finish OTP verification.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	email := normalize.Email(req.Email)
	if !inputval.IsValidEmail(email) {
		httpjson.Error(w, http.StatusBadRequest, "Please provide a valid email.")
		return
	}
	if req.Password == "" {
		httpjson.Error(w, http.StatusBadRequest, "Password is required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	acct, err := h.lookup(ctx, email)
	if err != nil {
		h.Log.Error("login lookup failed", zap.String("email", email), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Server error during login.")
		return
	}
	if acct == nil {
		httpjson.Error(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if acct.passwordHash == "" {
		httpjson.Error(w, http.StatusUnauthorized, "Account setup incomplete or uses social login.")
		return
	}
	if !acct.verified {
		httpjson.Error(w, http.StatusForbidden, "Email not verified. Please complete OTP verification.")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.passwordHash), []byte(req.Password)) != nil {
		httpjson.Error(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := h.Sessions.Issue(w, acct.id); err != nil {
		h.Log.Error("session issue failed", zap.String("account_id", acct.id), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Server error during login.")
		return
	}

	if acct.role == models.RoleSeller {
		httpjson.Write(w, http.StatusOK, sellerProfile{
			ID:        acct.id,
			Email:     acct.email,
			StoreName: acct.storeName,
			Role:      models.RoleSeller,
		})
		return
	}
	httpjson.Write(w, http.StatusOK, customerProfile{
		ID:      acct.id,
		Email:   acct.email,
		Name:    acct.name,
		Role:    models.RoleCustomer,
		Address: acct.address,
	})
}

func (h *Handler) lookup(ctx context.Context, email string) (*account, error) {
	c, err := h.Customers.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return &account{
			id:           c.ID.Hex(),
			email:        c.Email,
			name:         c.Name,
			passwordHash: c.PasswordHash,
			verified:     c.Verified,
			role:         models.RoleCustomer,
			address:      c.Address,
		}, nil
	case !errors.Is(err, mongo.ErrNoDocuments):
		return nil, err
	}

	s, err := h.Sellers.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return &account{
			id:           s.ID.Hex(),
			email:        s.Email,
			name:         s.Name,
			storeName:    s.StoreName,
			passwordHash: s.PasswordHash,
			verified:     s.Verified,
			role:         models.RoleSeller,
			address:      s.Address,
		}, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, nil
	default:
		return nil, err
	}
}

// ServeStatus handles GET /api/auth/status. The session middleware has
// already resolved the cookie; all that is left is reporting.
func (h *Handler) ServeStatus(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		h.Sessions.Clear(w)
		httpjson.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{
		"id":    u.ID,
		"email": u.Email,
		"name":  u.Name,
		"role":  u.Role,
	})
}

// ServeLogout handles POST /api/auth/logout.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Clear(w)
	httpjson.Write(w, http.StatusOK, map[string]string{"message": "Logged out."})
}
