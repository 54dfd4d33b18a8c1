// internal/domain/models/address.go
package models

// Address is a shipping address embedded on accounts and orders.
// Updates merge field by field: an empty incoming field keeps the
// stored value.
type Address struct {
	Street  string `bson:"street,omitempty" json:"street,omitempty"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	Pincode string `bson:"pincode,omitempty" json:"pincode,omitempty"`
}

// Merge returns a copy of a with any non-empty fields of in applied.
func (a Address) Merge(in Address) Address {
	if in.Street != "" {
		a.Street = in.Street
	}
	if in.City != "" {
		a.City = in.City
	}
	if in.Pincode != "" {
		a.Pincode = in.Pincode
	}
	return a
}
