// internal/app/store/products/store.go
package products

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/exoticc/storeapi/internal/app/system/normalize"
	"github.com/exoticc/storeapi/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("products")}
}

// Create inserts a product. The folded category is derived here so
// callers cannot desynchronize it.
func (s *Store) Create(ctx context.Context, p *models.Product) error {
	now := time.Now().UTC()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CategoryCI = normalize.Fold(p.Category)
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.c.InsertOne(ctx, p)
	return err
}

// GetByID loads a product. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns catalog products newest first, optionally filtered by
// case-insensitive category.
func (s *Store) List(ctx context.Context, category string) ([]models.Product, error) {
	filter := bson.M{}
	if category != "" {
		filter["category_ci"] = normalize.Fold(category)
	}

	cur, err := s.c.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Product
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListBySeller returns one seller's products, newest first.
func (s *Store) ListBySeller(ctx context.Context, sellerID primitive.ObjectID) ([]models.Product, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"seller_id": sellerID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Product
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update is a partial update. updates keys are bson field names; the
// caller validates them. category_ci stays in sync when category moves.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, updates bson.M) (*models.Product, error) {
	if cat, ok := updates["category"].(string); ok {
		updates["category_ci"] = normalize.Fold(cat)
	}
	updates["updated_at"] = time.Now().UTC()

	var p models.Product
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes a product. Returns mongo.ErrNoDocuments if nothing
// matched.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// DecrementStock reduces stock for a purchased quantity, flooring at
// zero. Oversell windows are accepted; stock never goes negative.
func (s *Store) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	// Try the guarded decrement first.
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "stock": bson.M{"$gte": qty}},
		bson.M{"$inc": bson.M{"stock": -qty}, "$set": bson.M{"updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Less stock than bought: floor at zero.
	_, err = s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"stock": 0, "updated_at": time.Now().UTC()}},
	)
	return err
}
