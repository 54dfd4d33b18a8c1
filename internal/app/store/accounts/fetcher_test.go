package accounts_test

import (
	"errors"
	"testing"

	"github.com/exoticc/storeapi/internal/app/store/accounts"
	"github.com/exoticc/storeapi/internal/app/store/customers"
	"github.com/exoticc/storeapi/internal/app/store/sellers"
	"github.com/exoticc/storeapi/internal/app/system/auth"
	"github.com/exoticc/storeapi/internal/domain/models"
	"github.com/exoticc/storeapi/internal/testutil"
)

func TestFetchAccount_Customer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fetcher := accounts.NewFetcher(customers.New(db), sellers.New(db))
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fx.CreateCustomer(ctx, "alice@example.com", "Alice", "secret123")

	u, err := fetcher.FetchAccount(ctx, c.ID.Hex())
	if err != nil {
		t.Fatalf("FetchAccount failed: %v", err)
	}
	if u.Role != models.RoleCustomer {
		t.Errorf("expected customer role, got %q", u.Role)
	}
	if u.Email != "alice@example.com" || u.Name != "Alice" {
		t.Errorf("unexpected identity: %+v", u)
	}
}

func TestFetchAccount_Seller(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fetcher := accounts.NewFetcher(customers.New(db), sellers.New(db))
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := fx.CreateSeller(ctx, "shop@example.com", "Shopkeeper", "The Shop", "secret123")

	u, err := fetcher.FetchAccount(ctx, s.ID.Hex())
	if err != nil {
		t.Fatalf("FetchAccount failed: %v", err)
	}
	if u.Role != models.RoleSeller {
		t.Errorf("expected seller role, got %q", u.Role)
	}
	if u.ID != s.ID.Hex() {
		t.Errorf("expected id %s, got %s", s.ID.Hex(), u.ID)
	}
}

func TestFetchAccount_Unknown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fetcher := accounts.NewFetcher(customers.New(db), sellers.New(db))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := fetcher.FetchAccount(ctx, "64b5f0c8a1b2c3d4e5f60718")
	if !errors.Is(err, accounts.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if !errors.Is(err, auth.ErrUnknownAccount) {
		t.Errorf("ErrNotFound should report the account as unknown, got %v", err)
	}
}

func TestFetchAccount_MalformedID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fetcher := accounts.NewFetcher(customers.New(db), sellers.New(db))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := fetcher.FetchAccount(ctx, "not-a-hex-id")
	if !errors.Is(err, accounts.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
