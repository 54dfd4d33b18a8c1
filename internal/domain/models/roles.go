// internal/domain/models/roles.go
package models

// Role identifies which side of the marketplace an account belongs to.
// It is derived from the collection an account lives in and is never
// persisted inside session tokens.
type Role string

const (
	RoleCustomer Role = "Customer"
	RoleSeller   Role = "Seller"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleSeller
}
