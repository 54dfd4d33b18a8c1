// internal/app/store/accounts/fetcher.go
package accounts

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/exoticc/storeapi/internal/app/store/customers"
	"github.com/exoticc/storeapi/internal/app/store/sellers"
	"github.com/exoticc/storeapi/internal/app/system/auth"
	"github.com/exoticc/storeapi/internal/domain/models"
)

// ErrNotFound is returned when no account on either side of the
// marketplace matches the id. It wraps auth.ErrUnknownAccount so the
// session middleware can tell a missing account from a failing store.
var ErrNotFound = fmt.Errorf("accounts: no account with that id: %w", auth.ErrUnknownAccount)

// Fetcher resolves session token subjects to live accounts. It
// implements auth.Fetcher by trying the customer collection first and
// falling back to sellers, so the role always reflects where the
// account actually lives.
type Fetcher struct {
	customers *customers.Store
	sellers   *sellers.Store
}

func NewFetcher(c *customers.Store, s *sellers.Store) *Fetcher {
	return &Fetcher{customers: c, sellers: s}
}

// FetchAccount implements auth.Fetcher.
func (f *Fetcher) FetchAccount(ctx context.Context, id string) (*auth.SessionUser, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	if c, err := f.customers.GetByID(ctx, oid); err == nil {
		return &auth.SessionUser{
			ID:    c.ID.Hex(),
			Name:  c.Name,
			Email: c.Email,
			Role:  models.RoleCustomer,
		}, nil
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	if s, err := f.sellers.GetByID(ctx, oid); err == nil {
		return &auth.SessionUser{
			ID:    s.ID.Hex(),
			Name:  s.Name,
			Email: s.Email,
			Role:  models.RoleSeller,
		}, nil
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	return nil, ErrNotFound
}
