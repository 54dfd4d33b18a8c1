// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/exoticc/storeapi/internal/app/system/normalize"
	"github.com/exoticc/storeapi/internal/domain/models"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// HashPassword bcrypts a plaintext for seeding accounts.
func (f *Fixtures) HashPassword(pw string) string {
	f.t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash password: %v", err)
	}
	return string(h)
}

// CreateCustomer inserts a verified customer with a password.
func (f *Fixtures) CreateCustomer(ctx context.Context, email, name, password string) models.Customer {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Customer{
		ID:           primitive.NewObjectID(),
		Email:        normalize.Email(email),
		Name:         name,
		PasswordHash: f.HashPassword(password),
		Verified:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("customers").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test customer: %v", err)
	}
	return c
}

// CreatePendingCustomer inserts a customer mid-registration with the
// given OTP hash and expiry.
func (f *Fixtures) CreatePendingCustomer(ctx context.Context, email, otpHash string, expiry time.Time) models.Customer {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Customer{
		ID:        primitive.NewObjectID(),
		Email:     normalize.Email(email),
		OTPHash:   otpHash,
		OTPExpiry: &expiry,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("customers").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create pending customer: %v", err)
	}
	return c
}

// CreateSeller inserts a verified seller with a store name.
func (f *Fixtures) CreateSeller(ctx context.Context, email, name, storeName, password string) models.Seller {
	f.t.Helper()

	now := time.Now().UTC()
	s := models.Seller{
		ID:           primitive.NewObjectID(),
		Email:        normalize.Email(email),
		Name:         name,
		StoreName:    storeName,
		StoreNameCI:  normalize.Fold(storeName),
		PasswordHash: f.HashPassword(password),
		Verified:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("sellers").InsertOne(ctx, s); err != nil {
		f.t.Fatalf("failed to create test seller: %v", err)
	}
	return s
}

// CreateProduct inserts a product for the given seller.
func (f *Fixtures) CreateProduct(ctx context.Context, sellerID primitive.ObjectID, name, category string, price float64, stock int) models.Product {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Product{
		ID:         primitive.NewObjectID(),
		SellerID:   sellerID,
		Name:       name,
		Category:   category,
		CategoryCI: normalize.Fold(category),
		Price:      price,
		Stock:      stock,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("products").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test product: %v", err)
	}
	return p
}

// CreateOrder inserts an order for the given customer.
func (f *Fixtures) CreateOrder(ctx context.Context, customerID primitive.ObjectID, items []models.OrderItem, status string) models.Order {
	f.t.Helper()

	total := 0.0
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}
	now := time.Now().UTC()
	o := models.Order{
		ID:            primitive.NewObjectID(),
		CustomerID:    customerID,
		Items:         items,
		TotalAmount:   total,
		Status:        status,
		PaymentStatus: models.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := f.db.Collection("orders").InsertOne(ctx, o); err != nil {
		f.t.Fatalf("failed to create test order: %v", err)
	}
	return o
}
