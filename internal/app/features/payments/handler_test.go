package payments

import (
	"context"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/exoticc/storeapi/internal/domain/models"
	"github.com/exoticc/storeapi/internal/testutil"
)

type fakeGateway struct {
	orderID   string
	createErr error
	valid     bool

	createdAmount float64
}

func (f *fakeGateway) CreateOrder(_ context.Context, amountRupees float64, _ string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.createdAmount = amountRupees
	return f.orderID, nil
}

func (f *fakeGateway) VerifySignature(_, _, _ string) bool { return f.valid }

type fakeOrders struct{ created *models.Order }

func (f *fakeOrders) Create(_ context.Context, o *models.Order) error {
	o.ID = primitive.NewObjectID()
	f.created = o
	return nil
}

type fakeInventory struct {
	byID       map[primitive.ObjectID]*models.Product
	decrements map[primitive.ObjectID]int
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{
		byID:       map[primitive.ObjectID]*models.Product{},
		decrements: map[primitive.ObjectID]int{},
	}
}

func (f *fakeInventory) GetByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeInventory) DecrementStock(_ context.Context, id primitive.ObjectID, qty int) error {
	f.decrements[id] += qty
	if p, ok := f.byID[id]; ok {
		p.Stock -= qty
		if p.Stock < 0 {
			p.Stock = 0
		}
	}
	return nil
}

type env struct {
	h       *Handler
	gateway *fakeGateway
	orders  *fakeOrders
	inv     *fakeInventory
}

func newEnv() *env {
	e := &env{
		gateway: &fakeGateway{orderID: "order_abc", valid: true},
		orders:  &fakeOrders{},
		inv:     newFakeInventory(),
	}
	e.h = NewHandler(e.gateway, e.orders, e.inv, zap.NewNop())
	return e
}

func (e *env) addProduct(price float64, stock int) *models.Product {
	p := &models.Product{
		ID:       primitive.NewObjectID(),
		SellerID: primitive.NewObjectID(),
		Name:     "bowl",
		Price:    price,
		Stock:    stock,
	}
	e.inv.byID[p.ID] = p
	return p
}

var shipping = map[string]string{"street": "1 MG Road", "city": "Pune", "pincode": "411001"}

func TestCheckout_Success(t *testing.T) {
	e := newEnv()

	req := testutil.WithUser(testutil.NewJSONRequest(t, "POST", "/checkout", map[string]any{
		"amount": 499.50,
	}), testutil.CustomerUser())
	rec := httptest.NewRecorder()
	e.h.ServeCheckout(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var got map[string]any
	testutil.DecodeJSON(t, rec, &got)
	if got["orderId"] != "order_abc" {
		t.Errorf("body = %v", got)
	}
	if e.gateway.createdAmount != 499.50 {
		t.Errorf("gateway amount = %v", e.gateway.createdAmount)
	}
}

func TestCheckout_AmountMustBePositive(t *testing.T) {
	e := newEnv()

	for _, amount := range []float64{0, -5} {
		req := testutil.WithUser(testutil.NewJSONRequest(t, "POST", "/checkout", map[string]any{
			"amount": amount,
		}), testutil.CustomerUser())
		rec := httptest.NewRecorder()
		e.h.ServeCheckout(rec, req)
		if rec.Code != 400 {
			t.Errorf("amount %v: status = %d, want 400", amount, rec.Code)
		}
	}
}

func TestCheckout_Anonymous(t *testing.T) {
	e := newEnv()

	req := testutil.NewJSONRequest(t, "POST", "/checkout", map[string]any{"amount": 10})
	rec := httptest.NewRecorder()
	e.h.ServeCheckout(rec, req)
	if rec.Code != 401 {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func verifyBody(p *models.Product, qty int) map[string]any {
	return map[string]any{
		"razorpay_order_id":   "order_abc",
		"razorpay_payment_id": "pay_123",
		"razorpay_signature":  "sig",
		"cartItems":           []map[string]any{{"productId": p.ID.Hex(), "quantity": qty}},
		"shippingAddress":     shipping,
	}
}

func TestVerify_Success(t *testing.T) {
	e := newEnv()
	p := e.addProduct(250, 10)
	user := testutil.CustomerUser()

	req := testutil.WithUser(testutil.NewJSONRequest(t, "POST", "/verify", verifyBody(p, 2)), user)
	rec := httptest.NewRecorder()
	e.h.ServeVerify(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	o := e.orders.created
	if o == nil {
		t.Fatal("no order created")
	}
	if o.PaymentStatus != models.PaymentStatusPaid {
		t.Errorf("payment status = %s", o.PaymentStatus)
	}
	if o.TotalAmount != 500 {
		t.Errorf("total = %v, want 500", o.TotalAmount)
	}
	if o.Payment == nil || o.Payment.OrderID != "order_abc" || o.Payment.PaymentID != "pay_123" {
		t.Errorf("payment refs = %+v", o.Payment)
	}
	if e.inv.decrements[p.ID] != 2 {
		t.Errorf("decrement = %d, want 2", e.inv.decrements[p.ID])
	}
}

func TestVerify_BadSignature(t *testing.T) {
	e := newEnv()
	e.gateway.valid = false
	p := e.addProduct(250, 10)

	req := testutil.WithUser(testutil.NewJSONRequest(t, "POST", "/verify", verifyBody(p, 1)), testutil.CustomerUser())
	rec := httptest.NewRecorder()
	e.h.ServeVerify(rec, req)

	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := testutil.ErrorMessage(t, rec); got != "Payment verification failed" {
		t.Errorf("message = %q", got)
	}
	if e.orders.created != nil {
		t.Error("no order may be created on a bad signature")
	}
	if len(e.inv.decrements) != 0 {
		t.Error("stock must stay untouched on a bad signature")
	}
}

func TestVerify_StockFloorsAtZero(t *testing.T) {
	e := newEnv()
	p := e.addProduct(100, 1)

	req := testutil.WithUser(testutil.NewJSONRequest(t, "POST", "/verify", verifyBody(p, 5)), testutil.CustomerUser())
	rec := httptest.NewRecorder()
	e.h.ServeVerify(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if p.Stock != 0 {
		t.Errorf("stock = %d, want 0", p.Stock)
	}
}

func TestVerify_Validation(t *testing.T) {
	e := newEnv()
	p := e.addProduct(100, 5)

	mutate := func(fn func(map[string]any)) map[string]any {
		body := verifyBody(p, 1)
		fn(body)
		return body
	}
	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing order id", mutate(func(b map[string]any) { b["razorpay_order_id"] = "" })},
		{"missing payment id", mutate(func(b map[string]any) { b["razorpay_payment_id"] = "" })},
		{"missing signature", mutate(func(b map[string]any) { b["razorpay_signature"] = "" })},
		{"empty cart", mutate(func(b map[string]any) { b["cartItems"] = []map[string]any{} })},
		{"missing address", mutate(func(b map[string]any) { delete(b, "shippingAddress") })},
	}
	for _, tc := range cases {
		req := testutil.WithUser(testutil.NewJSONRequest(t, "POST", "/verify", tc.body), testutil.CustomerUser())
		rec := httptest.NewRecorder()
		e.h.ServeVerify(rec, req)
		if rec.Code != 400 {
			t.Errorf("%s: status = %d, want 400", tc.name, rec.Code)
		}
	}
}
