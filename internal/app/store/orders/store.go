// internal/app/store/orders/store.go
//
// Package orders persists customer orders in the "orders" collection.
// Items are snapshots taken at checkout; product edits never touch
// existing orders.
package orders

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/exoticc/storeapi/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("orders")}
}

// Create inserts an order with its item snapshot. Status and payment
// status default to Pending when unset.
func (s *Store) Create(ctx context.Context, o *models.Order) error {
	now := time.Now().UTC()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	if o.Status == "" {
		o.Status = models.OrderStatusPending
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = models.PaymentStatusPending
	}
	o.CreatedAt = now
	o.UpdatedAt = now

	_, err := s.c.InsertOne(ctx, o)
	return err
}

// GetByID loads an order. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByCustomer returns a customer's orders, newest first.
func (s *Store) ListByCustomer(ctx context.Context, customerID primitive.ObjectID) ([]models.Order, error) {
	return s.list(ctx, bson.M{"customer_id": customerID})
}

// ListBySeller returns orders containing at least one of the seller's
// items, newest first.
func (s *Store) ListBySeller(ctx context.Context, sellerID primitive.ObjectID) ([]models.Order, error) {
	return s.list(ctx, bson.M{"items.seller_id": sellerID})
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.Order, error) {
	cur, err := s.c.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Order
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Cancel moves an order to Cancelled and returns the updated document.
// Returns mongo.ErrNoDocuments if nothing matched.
func (s *Store) Cancel(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":     models.OrderStatusCancelled,
			"updated_at": time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&o)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
