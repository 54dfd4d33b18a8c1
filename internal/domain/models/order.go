// internal/domain/models/order.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order fulfillment states.
const (
	OrderStatusPending   = "Pending"
	OrderStatusCancelled = "Cancelled"
)

// Order payment states.
const (
	PaymentStatusPending = "Pending"
	PaymentStatusPaid    = "Paid"
)

// OrderItem is a point-in-time snapshot of a product line at checkout.
// Name, Image, and Price are copied from the product so later catalog
// edits do not rewrite order history.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"product_id" json:"product_id"`
	SellerID  primitive.ObjectID `bson:"seller_id,omitempty" json:"seller_id,omitempty"`
	Name      string             `bson:"name" json:"name"`
	Image     string             `bson:"image,omitempty" json:"image,omitempty"`
	Price     float64            `bson:"price" json:"price"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

// Payment holds the gateway references recorded when a payment is
// verified. The signature has already been checked by then; it is kept
// for reconciliation.
type Payment struct {
	OrderID   string `bson:"order_id,omitempty" json:"order_id,omitempty"`
	PaymentID string `bson:"payment_id,omitempty" json:"payment_id,omitempty"`
	Signature string `bson:"signature,omitempty" json:"-"`
}

// Order is a customer's purchase of one or more products.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CustomerID      primitive.ObjectID `bson:"customer_id" json:"customer_id"`
	Items           []OrderItem        `bson:"items" json:"items"`
	TotalAmount     float64            `bson:"total_amount" json:"total_amount"`
	Status          string             `bson:"status" json:"status"`
	PaymentStatus   string             `bson:"payment_status" json:"payment_status"`
	ShippingAddress Address            `bson:"shipping_address" json:"shipping_address"`
	Payment         *Payment           `bson:"payment,omitempty" json:"payment,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
