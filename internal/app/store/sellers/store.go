// internal/app/store/sellers/store.go
package sellers

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

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("sellers")}
}

// GetByID loads a seller by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Seller, error) {
	var sl models.Seller
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sl); err != nil {
		return nil, err
	}
	return &sl, nil
}

// GetByEmail looks up a seller by normalized email. Returns
// mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Seller, error) {
	var sl models.Seller
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&sl); err != nil {
		return nil, err
	}
	return &sl, nil
}

// StoreNames returns the store names for a set of seller IDs, used to
// join seller display data onto product listings.
func (s *Store) StoreNames(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	names := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	cur, err := s.c.Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"store_name": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc struct {
			ID        primitive.ObjectID `bson:"_id"`
			StoreName string             `bson:"store_name"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		names[doc.ID] = doc.StoreName
	}
	return names, cur.Err()
}

/* ------------------------------------------------------------------ */
/* signup.Accounts                                                    */
/* ------------------------------------------------------------------ */

// UpsertPending mirrors the customer flow: atomic upsert, last writer
// wins.
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

// Pending returns the signup view of the account, or nil if absent.
func (s *Store) Pending(ctx context.Context, email string) (*signup.Pending, error) {
	sl, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &signup.Pending{
		ID:        sl.ID.Hex(),
		Email:     sl.Email,
		Verified:  sl.Verified,
		OTPHash:   sl.OTPHash,
		OTPExpiry: sl.OTPExpiry,
	}, nil
}

// Finalize completes seller registration. The folded store name hits a
// sparse unique index; a collision maps to signup.ErrStoreNameTaken.
func (s *Store) Finalize(ctx context.Context, f signup.Finalization) (string, error) {
	email := normalize.Email(f.Email)

	var sl models.Seller
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"email": email},
		bson.M{
			"$set": bson.M{
				"name":          normalize.Name(f.Name),
				"store_name":    f.StoreName,
				"store_name_ci": f.StoreNameCI,
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
	).Decode(&sl)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return "", signup.ErrStoreNameTaken
		}
		return "", err
	}
	return sl.ID.Hex(), nil
}
