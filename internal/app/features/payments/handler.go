// internal/app/features/payments/handler.go
//
// Package payments serves the gateway checkout handshake: create a
// gateway order for an amount, then verify the returned signature and
// persist the paid order.
package payments

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/exoticc/storeapi/internal/app/system/auth"
	"github.com/exoticc/storeapi/internal/app/system/httpjson"
	"github.com/exoticc/storeapi/internal/app/system/inputval"
	"github.com/exoticc/storeapi/internal/app/system/payments"
	"github.com/exoticc/storeapi/internal/app/system/timeouts"
	"github.com/exoticc/storeapi/internal/domain/models"
)

// OrderSink persists the verified order.
type OrderSink interface {
	Create(ctx context.Context, o *models.Order) error
}

// Inventory resolves products and decrements stock after a verified
// payment.
type Inventory interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) error
}

type Handler struct {
	Gateway  payments.Gateway
	Orders   OrderSink
	Products Inventory
	Log      *zap.Logger
}

func NewHandler(gateway payments.Gateway, orderSink OrderSink, inventory Inventory, log *zap.Logger) *Handler {
	return &Handler{Gateway: gateway, Orders: orderSink, Products: inventory, Log: log}
}

type checkoutRequest struct {
	Amount float64 `json:"amount"`
}

// ServeCheckout handles POST /api/payment/checkout: opens a gateway
// order for the rupee amount.
func (h *Handler) ServeCheckout(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req checkoutRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.Amount <= 0 {
		httpjson.Error(w, http.StatusBadRequest, "Amount must be positive.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	receipt := "rcpt_" + uuid.NewString()
	orderID, err := h.Gateway.CreateOrder(ctx, req.Amount, receipt)
	if err != nil {
		h.Log.Error("gateway order creation failed",
			zap.String("customer_id", u.ID),
			zap.Float64("amount", req.Amount),
			zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Server Error")
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]any{
		"success": true,
		"orderId": orderID,
		"amount":  req.Amount,
	})
}

type cartItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type verifyRequest struct {
	RazorpayOrderID   string         `json:"razorpay_order_id"`
	RazorpayPaymentID string         `json:"razorpay_payment_id"`
	RazorpaySignature string         `json:"razorpay_signature"`
	CartItems         []cartItem     `json:"cartItems"`
	ShippingAddress   models.Address `json:"shippingAddress"`
}

// ServeVerify handles POST /api/payment/verify.
//
// The HMAC signature is checked first; nothing is touched on a
// mismatch. After a verified payment the stock of each line is
// decremented (floored at zero) and the order is written as Paid.
func (h *Handler) ServeVerify(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	customerID, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		httpjson.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req verifyRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	switch {
	case strings.TrimSpace(req.RazorpayOrderID) == "":
		httpjson.Error(w, http.StatusBadRequest, "Razorpay Order ID is required.")
		return
	case strings.TrimSpace(req.RazorpayPaymentID) == "":
		httpjson.Error(w, http.StatusBadRequest, "Razorpay Payment ID is required.")
		return
	case strings.TrimSpace(req.RazorpaySignature) == "":
		httpjson.Error(w, http.StatusBadRequest, "Razorpay Signature is required.")
		return
	case len(req.CartItems) == 0:
		httpjson.Error(w, http.StatusBadRequest, "Cart items are required.")
		return
	case req.ShippingAddress.Street == "" || req.ShippingAddress.City == "":
		httpjson.Error(w, http.StatusBadRequest, "Shipping address is required.")
		return
	case !inputval.IsValidPincode(req.ShippingAddress.Pincode):
		httpjson.Error(w, http.StatusBadRequest, "Valid pincode is required.")
		return
	}

	if !h.Gateway.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		httpjson.Error(w, http.StatusBadRequest, "Payment verification failed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	items := make([]models.OrderItem, 0, len(req.CartItems))
	total := 0.0
	for _, it := range req.CartItems {
		if it.Quantity < 1 {
			httpjson.Error(w, http.StatusBadRequest, "Item quantity must be at least 1.")
			return
		}
		pid, err := primitive.ObjectIDFromHex(it.ProductID)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "Invalid product ID format.")
			return
		}
		p, err := h.Products.GetByID(ctx, pid)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				httpjson.Error(w, http.StatusBadRequest, "Product not found: "+it.ProductID)
				return
			}
			h.Log.Error("product lookup failed", zap.String("product_id", it.ProductID), zap.Error(err))
			httpjson.Error(w, http.StatusInternalServerError, "Server Error")
			return
		}
		image := ""
		if len(p.Images) > 0 {
			image = p.Images[0]
		}
		items = append(items, models.OrderItem{
			ProductID: p.ID,
			SellerID:  p.SellerID,
			Name:      p.Name,
			Image:     image,
			Price:     p.Price,
			Quantity:  it.Quantity,
		})
		total += p.Price * float64(it.Quantity)
	}

	for _, it := range items {
		if err := h.Products.DecrementStock(ctx, it.ProductID, it.Quantity); err != nil {
			h.Log.Error("stock decrement failed",
				zap.String("product_id", it.ProductID.Hex()),
				zap.Int("quantity", it.Quantity),
				zap.Error(err))
		}
	}

	o := &models.Order{
		CustomerID:      customerID,
		Items:           items,
		TotalAmount:     total,
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPaid,
		ShippingAddress: req.ShippingAddress,
		Payment: &models.Payment{
			OrderID:   req.RazorpayOrderID,
			PaymentID: req.RazorpayPaymentID,
			Signature: req.RazorpaySignature,
		},
	}
	if err := h.Orders.Create(ctx, o); err != nil {
		h.Log.Error("paid order create failed", zap.String("customer_id", u.ID), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Server Error")
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]any{
		"success":   true,
		"paymentId": req.RazorpayPaymentID,
		"orderId":   o.ID.Hex(),
	})
}
