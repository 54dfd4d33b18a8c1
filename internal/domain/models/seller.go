// internal/domain/models/seller.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Seller is a merchant-side account. Sellers go through the same
// code-then-finalize registration as customers but additionally carry a
// store name, which must be unique case-insensitively (StoreNameCI).
type Seller struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	Name         string             `bson:"name,omitempty" json:"name,omitempty"`
	StoreName    string             `bson:"store_name,omitempty" json:"store_name,omitempty"`
	StoreNameCI  string             `bson:"store_name_ci,omitempty" json:"-"` // lowercase, diacritics-stripped
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	Verified     bool               `bson:"verified" json:"verified"`

	OTPHash   string     `bson:"otp_hash,omitempty" json:"-"`
	OTPExpiry *time.Time `bson:"otp_expiry,omitempty" json:"-"`

	Phone     string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Address   *Address  `bson:"address,omitempty" json:"address,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

func (s *Seller) HasPassword() bool { return s.PasswordHash != "" }
