package models_test

import (
	"testing"

	"github.com/exoticc/storeapi/internal/domain/models"
)

// The role discriminator is part of the wire contract: clients send and
// receive the capitalized names.
func TestRole_WireValues(t *testing.T) {
	if got := string(models.RoleCustomer); got != "Customer" {
		t.Errorf("customer role wire value = %q, want %q", got, "Customer")
	}
	if got := string(models.RoleSeller); got != "Seller" {
		t.Errorf("seller role wire value = %q, want %q", got, "Seller")
	}
}

func TestRole_Valid(t *testing.T) {
	if !models.RoleCustomer.Valid() || !models.RoleSeller.Valid() {
		t.Error("expected known roles to be valid")
	}
	for _, r := range []models.Role{"", "customer", "seller", "Admin"} {
		if r.Valid() {
			t.Errorf("expected %q to be invalid", r)
		}
	}
}
