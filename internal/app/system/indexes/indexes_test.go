package indexes_test

import (
	"testing"

	"github.com/exoticc/storeapi/internal/app/system/indexes"
	"github.com/exoticc/storeapi/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestEnsureAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// EnsureAll should succeed on a clean database
	err := indexes.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// First call
	err := indexes.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}

	// Second call should also succeed (idempotent)
	err = indexes.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCustomerIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := indexes.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	cur, err := db.Collection("customers").Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	indexNames := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			indexNames[name] = true
		}
	}

	expectedIndexes := []string{
		"uniq_customers_email",
		"uniq_customers_googleid",
	}

	for _, name := range expectedIndexes {
		if !indexNames[name] {
			t.Errorf("expected index %q to exist on customers collection", name)
		}
	}
}

func TestEnsureAll_CreatesSellerIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := indexes.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	cur, err := db.Collection("sellers").Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	indexNames := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			indexNames[name] = true
		}
	}

	expectedIndexes := []string{
		"uniq_sellers_email",
		"uniq_sellers_storenameci",
	}

	for _, name := range expectedIndexes {
		if !indexNames[name] {
			t.Errorf("expected index %q to exist on sellers collection", name)
		}
	}
}

func TestEnsureAll_CreatesProductIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := indexes.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	cur, err := db.Collection("products").Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	indexNames := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			indexNames[name] = true
		}
	}

	expectedIndexes := []string{
		"idx_products_seller_created",
		"idx_products_categoryci__id",
		"idx_products_created",
	}

	for _, name := range expectedIndexes {
		if !indexNames[name] {
			t.Errorf("expected index %q to exist on products collection", name)
		}
	}
}

func TestEnsureAll_CreatesOrderIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := indexes.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	cur, err := db.Collection("orders").Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	indexNames := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			indexNames[name] = true
		}
	}

	expectedIndexes := []string{
		"idx_orders_customer_created",
		"uniq_orders_paymentorder",
		"idx_orders_itemseller_created",
	}

	for _, name := range expectedIndexes {
		if !indexNames[name] {
			t.Errorf("expected index %q to exist on orders collection", name)
		}
	}
}

func TestEnsureAll_UniqueIndexEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Run EnsureAll to create indexes
	err := indexes.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Insert a customer with an email
	_, err = db.Collection("customers").InsertOne(ctx, bson.M{"email": "dup@example.com", "verified": false})
	if err != nil {
		t.Fatalf("Insert customer failed: %v", err)
	}

	// Try to insert another customer with the same email - should fail
	_, err = db.Collection("customers").InsertOne(ctx, bson.M{"email": "dup@example.com", "verified": false})
	if err == nil {
		t.Error("expected duplicate key error for unique index on customers.email")
	}
}
