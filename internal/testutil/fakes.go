// internal/testutil/fakes.go
package testutil

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/exoticc/storeapi/internal/app/system/signup"
)

// MemAccounts is an in-memory signup.Accounts for flow and handler
// tests. It reproduces the store semantics: upsert resets the pending
// state, finalize clears it; store name collisions surface as
// signup.ErrStoreNameTaken.
type MemAccounts struct {
	mu      sync.Mutex
	records map[string]*memRecord // keyed by email

	// TakenStoreNames simulates the unique store-name index.
	TakenStoreNames map[string]bool
}

type memRecord struct {
	id        string
	email     string
	name      string
	storeName string
	pwHash    string
	verified  bool
	otpHash   string
	otpExpiry *time.Time
}

// NewMemAccounts creates an empty in-memory account store.
func NewMemAccounts() *MemAccounts {
	return &MemAccounts{
		records:         make(map[string]*memRecord),
		TakenStoreNames: make(map[string]bool),
	}
}

// SeedVerified inserts a completed account and returns its id.
func (m *MemAccounts) SeedVerified(email, name, pwHash string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := primitive.NewObjectID().Hex()
	m.records[email] = &memRecord{id: id, email: email, name: name, pwHash: pwHash, verified: true}
	return id
}

func (m *MemAccounts) UpsertPending(_ context.Context, email, otpHash string, expiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[email]
	if !ok {
		rec = &memRecord{id: primitive.NewObjectID().Hex(), email: email}
		m.records[email] = rec
	}
	rec.otpHash = otpHash
	rec.otpExpiry = &expiry
	rec.verified = false
	return nil
}

func (m *MemAccounts) Pending(_ context.Context, email string) (*signup.Pending, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[email]
	if !ok {
		return nil, nil
	}
	return &signup.Pending{
		ID:        rec.id,
		Email:     rec.email,
		Verified:  rec.verified,
		OTPHash:   rec.otpHash,
		OTPExpiry: rec.otpExpiry,
	}, nil
}

func (m *MemAccounts) Finalize(_ context.Context, f signup.Finalization) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if f.StoreNameCI != "" && m.TakenStoreNames[f.StoreNameCI] {
		return "", signup.ErrStoreNameTaken
	}

	rec, ok := m.records[f.Email]
	if !ok {
		return "", signup.ErrNotStarted
	}
	rec.name = f.Name
	rec.storeName = f.StoreName
	rec.pwHash = f.PasswordHash
	rec.verified = true
	rec.otpHash = ""
	rec.otpExpiry = nil
	if f.StoreNameCI != "" {
		m.TakenStoreNames[f.StoreNameCI] = true
	}
	return rec.id, nil
}

// Record returns a snapshot of the stored state for assertions.
func (m *MemAccounts) Record(email string) (id, name, storeName, pwHash string, verified bool, otpHash string, otpExpiry *time.Time, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, found := m.records[email]
	if !found {
		return "", "", "", "", false, "", nil, false
	}
	return rec.id, rec.name, rec.storeName, rec.pwHash, rec.verified, rec.otpHash, rec.otpExpiry, true
}

// CaptureSender records verification codes instead of sending mail.
type CaptureSender struct {
	mu    sync.Mutex
	Codes map[string][]string // email -> codes in issue order
	Err   error               // returned from sends when set
}

// NewCaptureSender creates an empty capturing sender.
func NewCaptureSender() *CaptureSender {
	return &CaptureSender{Codes: make(map[string][]string)}
}

func (c *CaptureSender) SendVerificationCode(_ context.Context, email, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.Codes[email] = append(c.Codes[email], code)
	return nil
}

// LastCode returns the most recent code sent to the email.
func (c *CaptureSender) LastCode(email string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	codes := c.Codes[email]
	if len(codes) == 0 {
		return ""
	}
	return codes[len(codes)-1]
}

// SentCount returns how many codes went to the email.
func (c *CaptureSender) SentCount(email string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Codes[email])
}
