// internal/app/system/payments/payments.go
//
// Package payments wraps the Razorpay gateway: creating gateway orders
// for checkout and verifying the signature the client posts back after
// paying.
package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	razorpay "github.com/razorpay/razorpay-go"
)

// Gateway is the payment surface handlers depend on. Tests stub it.
type Gateway interface {
	// CreateOrder registers an order with the gateway for the given
	// rupee amount and returns the gateway order id.
	CreateOrder(ctx context.Context, amountRupees float64, receipt string) (string, error)

	// VerifySignature reports whether the signature the client posted
	// matches the gateway's order/payment pair.
	VerifySignature(orderID, paymentID, signature string) bool
}

// Razorpay is the production Gateway.
type Razorpay struct {
	client    *razorpay.Client
	keySecret string
}

// New builds a Razorpay gateway client.
func New(keyID, keySecret string) (*Razorpay, error) {
	if keyID == "" || keySecret == "" {
		return nil, errors.New("payments: razorpay key id and secret are required")
	}
	return &Razorpay{
		client:    razorpay.NewClient(keyID, keySecret),
		keySecret: keySecret,
	}, nil
}

// CreateOrder registers the amount with Razorpay. Amounts are rupees at
// the API boundary and paise on the wire.
func (r *Razorpay) CreateOrder(ctx context.Context, amountRupees float64, receipt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if amountRupees <= 0 {
		return "", errors.New("payments: amount must be positive")
	}

	paise := int64(math.Round(amountRupees * 100))
	data := map[string]interface{}{
		"amount":   paise,
		"currency": "INR",
		"receipt":  receipt,
	}
	order, err := r.client.Order.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("payments: create gateway order: %w", err)
	}

	id, ok := order["id"].(string)
	if !ok || id == "" {
		return "", errors.New("payments: gateway response missing order id")
	}
	return id, nil
}

// VerifySignature implements the gateway's checkout contract: the
// expected signature is HMAC-SHA256 over "order_id|payment_id" keyed
// with the API secret, hex encoded.
func (r *Razorpay) VerifySignature(orderID, paymentID, signature string) bool {
	return verifySignature(r.keySecret, orderID, paymentID, signature)
}

func verifySignature(secret, orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
