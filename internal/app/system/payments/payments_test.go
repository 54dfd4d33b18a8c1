package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature_Valid(t *testing.T) {
	secret := "test-secret"
	sig := sign(secret, "order_ABC", "pay_XYZ")

	if !verifySignature(secret, "order_ABC", "pay_XYZ", sig) {
		t.Error("expected valid signature to verify")
	}
}

func TestVerifySignature_Tampered(t *testing.T) {
	secret := "test-secret"
	sig := sign(secret, "order_ABC", "pay_XYZ")

	tests := []struct {
		name              string
		orderID, payID    string
		signature, secret string
	}{
		{"different order", "order_OTHER", "pay_XYZ", sig, secret},
		{"different payment", "order_ABC", "pay_OTHER", sig, secret},
		{"different secret", "order_ABC", "pay_XYZ", sig, "wrong-secret"},
		{"garbage signature", "order_ABC", "pay_XYZ", "deadbeef", secret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if verifySignature(tt.secret, tt.orderID, tt.payID, tt.signature) {
				t.Error("expected verification to fail")
			}
		})
	}
}

func TestVerifySignature_EmptyInputs(t *testing.T) {
	if verifySignature("secret", "", "pay_XYZ", "sig") {
		t.Error("empty order id should not verify")
	}
	if verifySignature("secret", "order_ABC", "", "sig") {
		t.Error("empty payment id should not verify")
	}
	if verifySignature("secret", "order_ABC", "pay_XYZ", "") {
		t.Error("empty signature should not verify")
	}
}

func TestNew_RequiresCredentials(t *testing.T) {
	if _, err := New("", "secret"); err == nil {
		t.Error("expected error for missing key id")
	}
	if _, err := New("key", ""); err == nil {
		t.Error("expected error for missing secret")
	}
}
