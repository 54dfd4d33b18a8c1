// internal/app/features/orders/handler.go
//
// Package orders serves order placement, history, and cancellation.
// Line items are snapshotted from the catalog at placement time, so
// later price or name changes never rewrite an existing order.
package orders

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/exoticc/storeapi/internal/app/system/auth"
	"github.com/exoticc/storeapi/internal/app/system/httpjson"
	"github.com/exoticc/storeapi/internal/app/system/inputval"
	"github.com/exoticc/storeapi/internal/app/system/timeouts"
	"github.com/exoticc/storeapi/internal/domain/models"
)

// OrderBook is the order store surface the handlers need.
type OrderBook interface {
	Create(ctx context.Context, o *models.Order) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID primitive.ObjectID) ([]models.Order, error)
	ListBySeller(ctx context.Context, sellerID primitive.ObjectID) ([]models.Order, error)
	Cancel(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
}

// ProductSource resolves catalog products for snapshotting.
type ProductSource interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
}

// CancelNotifier sends the best-effort cancellation email.
type CancelNotifier interface {
	SendOrderCancelled(ctx context.Context, email, orderID string) error
}

type Handler struct {
	Orders   OrderBook
	Products ProductSource
	Notify   CancelNotifier
	Log      *zap.Logger
}

func NewHandler(orderStore OrderBook, productSource ProductSource, notify CancelNotifier, log *zap.Logger) *Handler {
	return &Handler{Orders: orderStore, Products: productSource, Notify: notify, Log: log}
}

type orderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type placeOrderRequest struct {
	Items           []orderItemRequest `json:"items"`
	ShippingAddress models.Address     `json:"shippingAddress"`
}

// ServePlaceOrder handles POST /api/orders.
//
// Each line is looked up in the catalog and its name, image, price,
// and seller are copied onto the order. The total is computed here,
// never trusted from the caller.
func (h *Handler) ServePlaceOrder(w http.ResponseWriter, r *http.Request) {
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

	var req placeOrderRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if len(req.Items) == 0 {
		httpjson.Error(w, http.StatusBadRequest, "Cart items are required.")
		return
	}
	if req.ShippingAddress.Street == "" || req.ShippingAddress.City == "" {
		httpjson.Error(w, http.StatusBadRequest, "Shipping address is required.")
		return
	}
	if !inputval.IsValidPincode(req.ShippingAddress.Pincode) {
		httpjson.Error(w, http.StatusBadRequest, "Valid pincode is required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, total, msg := h.snapshotItems(ctx, req.Items)
	if msg != "" {
		httpjson.Error(w, http.StatusBadRequest, msg)
		return
	}

	o := &models.Order{
		CustomerID:      customerID,
		Items:           items,
		TotalAmount:     total,
		ShippingAddress: req.ShippingAddress,
	}
	if err := h.Orders.Create(ctx, o); err != nil {
		h.Log.Error("order create failed", zap.String("customer_id", u.ID), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Server error placing order.")
		return
	}
	httpjson.Write(w, http.StatusCreated, o)
}

// snapshotItems resolves each requested line against the catalog. The
// returned message is empty on success.
func (h *Handler) snapshotItems(ctx context.Context, reqs []orderItemRequest) ([]models.OrderItem, float64, string) {
	items := make([]models.OrderItem, 0, len(reqs))
	total := 0.0
	for _, it := range reqs {
		if it.Quantity < 1 {
			return nil, 0, "Item quantity must be at least 1."
		}
		pid, err := primitive.ObjectIDFromHex(it.ProductID)
		if err != nil {
			return nil, 0, "Invalid product ID format."
		}
		p, err := h.Products.GetByID(ctx, pid)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, 0, "Product not found: " + it.ProductID
			}
			h.Log.Error("product lookup failed", zap.String("product_id", it.ProductID), zap.Error(err))
			return nil, 0, "Server error placing order."
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
	return items, total, ""
}

// ServeList handles GET /api/orders. Customers see their own orders;
// sellers see every order containing one of their products.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		httpjson.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var list []models.Order
	if u.Role == models.RoleSeller {
		list, err = h.Orders.ListBySeller(ctx, id)
	} else {
		list, err = h.Orders.ListByCustomer(ctx, id)
	}
	if err != nil {
		h.Log.Error("order list failed", zap.String("account_id", u.ID), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Server error fetching orders.")
		return
	}
	if list == nil {
		list = []models.Order{}
	}
	httpjson.Write(w, http.StatusOK, list)
}

// ServeCancel handles PUT /api/orders/{id}/cancel. Only the customer
// who placed the order may cancel it; the confirmation email is
// best-effort and never fails the request.
func (h *Handler) ServeCancel(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid order ID format.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	o, err := h.Orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "Order not found or not authorized")
			return
		}
		h.Log.Error("order load failed", zap.String("order_id", id.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Server Error")
		return
	}
	// An order not owned by the caller looks exactly like a missing
	// one.
	if o.CustomerID.Hex() != u.ID {
		httpjson.Error(w, http.StatusNotFound, "Order not found or not authorized")
		return
	}

	updated, err := h.Orders.Cancel(ctx, id)
	if err != nil {
		h.Log.Error("order cancel failed", zap.String("order_id", id.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Server Error")
		return
	}

	if err := h.Notify.SendOrderCancelled(ctx, u.Email, id.Hex()); err != nil {
		h.Log.Warn("cancellation email failed",
			zap.String("order_id", id.Hex()),
			zap.String("email", u.Email),
			zap.Error(err))
	}

	httpjson.Write(w, http.StatusOK, updated)
}
