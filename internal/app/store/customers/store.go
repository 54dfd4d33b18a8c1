// internal/app/store/customers/store.go
package customers

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/exoticc/storeapi/internal/app/system/normalize"
	"github.com/exoticc/storeapi/internal/app/system/signup"
	"github.com/exoticc/storeapi/internal/domain/models"
)

// ErrDuplicateEmail is returned when an insert collides with the unique
// email index.
var ErrDuplicateEmail = errors.New("customers: email already registered")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("customers")}
}

// GetByID loads a customer by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error) {
	var c models.Customer
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByEmail looks up a customer by normalized email. Returns
// mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var c models.Customer
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByGoogleID looks up a customer by linked Google account id.
func (s *Store) GetByGoogleID(ctx context.Context, googleID string) (*models.Customer, error) {
	var c models.Customer
	if err := s.c.FindOne(ctx, bson.M{"google_id": googleID}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

/* ------------------------------------------------------------------ */
/* signup.Accounts                                                    */
/* ------------------------------------------------------------------ */

// UpsertPending records a fresh verification code for the email,
// creating the account shell on first contact. Atomic single-document
// upsert: concurrent issuance is last-writer-wins.
func (s *Store) UpsertPending(ctx context.Context, email, otpHash string, expiry time.Time) error {
	email = normalize.Email(email)
	now := time.Now().UTC()

	_, err := s.c.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{
			"$set": bson.M{
				"otp_hash":   otpHash,
				"otp_expiry": expiry,
				"verified":   false,
				"updated_at": now,
			},
			"$setOnInsert": bson.M{
				"email":      email,
				"created_at": now,
			},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// Pending returns the signup view of the account, or nil if no record
// exists for the email.
func (s *Store) Pending(ctx context.Context, email string) (*signup.Pending, error) {
	c, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &signup.Pending{
		ID:        c.ID.Hex(),
		Email:     c.Email,
		Verified:  c.Verified,
		OTPHash:   c.OTPHash,
		OTPExpiry: c.OTPExpiry,
	}, nil
}

// Finalize flips the record to verified, stores the profile fields, and
// clears the OTP state.
func (s *Store) Finalize(ctx context.Context, f signup.Finalization) (string, error) {
	email := normalize.Email(f.Email)

	var c models.Customer
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"email": email},
		bson.M{
			"$set": bson.M{
				"name":          normalize.Name(f.Name),
				"password_hash": f.PasswordHash,
				"verified":      true,
				"updated_at":    time.Now().UTC(),
			},
			"$unset": bson.M{
				"otp_hash":   "",
				"otp_expiry": "",
			},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return "", err
	}
	return c.ID.Hex(), nil
}

/* ------------------------------------------------------------------ */
/* Google sign-in                                                     */
/* ------------------------------------------------------------------ */

// CreateFromGoogle inserts a pre-verified, passwordless customer linked
// to a Google identity.
func (s *Store) CreateFromGoogle(ctx context.Context, email, name, googleID string) (*models.Customer, error) {
	now := time.Now().UTC()
	c := models.Customer{
		ID:        primitive.NewObjectID(),
		Email:     normalize.Email(email),
		Name:      normalize.Name(name),
		Verified:  true,
		GoogleID:  googleID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return &c, nil
}

// LinkGoogle attaches a Google identity to an existing customer.
func (s *Store) LinkGoogle(ctx context.Context, id primitive.ObjectID, googleID string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"google_id":  googleID,
			"verified":   true,
			"updated_at": time.Now().UTC(),
		}},
	)
	return err
}

/* ------------------------------------------------------------------ */
/* Profile                                                            */
/* ------------------------------------------------------------------ */

// UpdateAddress merges the incoming address into the stored one: empty
// incoming fields keep their stored values.
func (s *Store) UpdateAddress(ctx context.Context, id primitive.ObjectID, in models.Address) (*models.Customer, error) {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := models.Address{}
	if cur.Address != nil {
		merged = *cur.Address
	}
	merged = merged.Merge(in)

	var c models.Customer
	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"address":    merged,
			"updated_at": time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
