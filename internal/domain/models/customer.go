// internal/domain/models/customer.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Customer is a buyer-side account.
//
// A customer record is created the moment a verification code is issued,
// before the person has chosen a name or password. Until registration is
// finalized the profile fields stay empty and Verified is false; the
// pending state is visible in the schema rather than hidden behind
// placeholder values.
//
// PasswordHash is empty for accounts created through Google sign-in.
type Customer struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	Name         string             `bson:"name,omitempty" json:"name,omitempty"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	Verified     bool               `bson:"verified" json:"verified"`

	// Pending OTP state. Both fields are cleared when registration
	// completes so a finished account carries no verification residue.
	OTPHash   string     `bson:"otp_hash,omitempty" json:"-"`
	OTPExpiry *time.Time `bson:"otp_expiry,omitempty" json:"-"`

	// GoogleID is set when the account is linked to a Google identity.
	// The index on this field is sparse-unique.
	GoogleID string `bson:"google_id,omitempty" json:"-"`

	Phone     string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Address   *Address  `bson:"address,omitempty" json:"address,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasPassword reports whether the account can authenticate with a
// password at all. Google-only accounts return false.
func (c *Customer) HasPassword() bool { return c.PasswordHash != "" }
