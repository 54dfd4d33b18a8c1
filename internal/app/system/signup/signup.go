// internal/app/system/signup/signup.go
//
// Package signup owns the two-step email registration state machine:
// issue a verification code to an address, then finalize the account
// once the code comes back with the profile details. The same flow
// serves customers and sellers; the account stores supply the
// role-specific persistence.
package signup

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/exoticc/storeapi/internal/domain/models"
)

// Sentinel errors. Handlers map these to HTTP statuses; the messages
// shown to callers live in the handlers, not here.
var (
	// ErrNotStarted: no pending record exists for the address.
	ErrNotStarted = errors.New("signup: no verification in progress for this email")

	// ErrCodeExpired: the window closed before the code came back.
	ErrCodeExpired = errors.New("signup: verification code has expired")

	// ErrCodeMismatch: the submitted code does not match.
	ErrCodeMismatch = errors.New("signup: verification code does not match")

	// ErrAlreadyVerified: the account already completed registration.
	ErrAlreadyVerified = errors.New("signup: account is already registered")

	// ErrStoreNameTaken: another seller owns this store name.
	ErrStoreNameTaken = errors.New("signup: store name is already in use")
)

// DeliveryError wraps a mail-send failure. The pending code stays
// persisted; re-issuing simply overwrites it.
type DeliveryError struct{ Err error }

func (e *DeliveryError) Error() string { return "signup: code delivery failed: " + e.Err.Error() }
func (e *DeliveryError) Unwrap() error { return e.Err }

// CodeTTL is how long an issued code stays valid.
const CodeTTL = 10 * time.Minute

// bcryptCost for OTP hashes. Codes live ten minutes; the default cost
// is plenty.
const bcryptCost = bcrypt.DefaultCost

// Pending is the slice of an account record the flow needs to validate
// a finalization attempt.
type Pending struct {
	ID        string
	Email     string
	Verified  bool
	OTPHash   string
	OTPExpiry *time.Time
}

// Finalization carries the profile details that turn a pending record
// into a live account. StoreName/StoreNameCI are set for sellers only.
type Finalization struct {
	Email        string
	Name         string
	PasswordHash string
	StoreName    string
	StoreNameCI  string
}

// Accounts is the persistence surface the flow needs from each side of
// the marketplace. The mongo stores implement it for real; testutil
// carries in-memory fakes.
type Accounts interface {
	// UpsertPending records a new code hash and expiry for the email,
	// creating the record if needed and resetting verified to false.
	// Last writer wins.
	UpsertPending(ctx context.Context, email, otpHash string, expiry time.Time) error

	// Pending returns the record for the email, or nil if none exists.
	Pending(ctx context.Context, email string) (*Pending, error)

	// Finalize marks the record verified, stores the profile fields,
	// and clears the OTP state. Returns the account ID.
	// Must return ErrStoreNameTaken if a seller store name collides.
	Finalize(ctx context.Context, f Finalization) (string, error)
}

// CodeSender delivers a verification code to an address. The mailer
// implements this.
type CodeSender interface {
	SendVerificationCode(ctx context.Context, email, code string) error
}

// Flow wires the pieces together. GenerateCode and Now are injectable
// so tests can pin the code and the clock.
type Flow struct {
	Customers Accounts
	Sellers   Accounts
	Sender    CodeSender
	Log       *zap.Logger

	GenerateCode func() (string, error)
	Now          func() time.Time
	TTL          time.Duration
}

// New builds a Flow with production defaults.
func New(customers, sellers Accounts, sender CodeSender, log *zap.Logger) *Flow {
	return &Flow{
		Customers:    customers,
		Sellers:      sellers,
		Sender:       sender,
		Log:          log,
		GenerateCode: generateCode,
		Now:          time.Now,
		TTL:          CodeTTL,
	}
}

func (f *Flow) accountsFor(role models.Role) Accounts {
	if role == models.RoleSeller {
		return f.Sellers
	}
	return f.Customers
}

// IssueCode starts (or restarts) registration for the address. A fresh
// code replaces any outstanding one; an already-verified account is
// refused with ErrAlreadyVerified.
func (f *Flow) IssueCode(ctx context.Context, role models.Role, email string) error {
	accounts := f.accountsFor(role)

	existing, err := accounts.Pending(ctx, email)
	if err != nil {
		return fmt.Errorf("look up account: %w", err)
	}
	if existing != nil && existing.Verified {
		return ErrAlreadyVerified
	}

	code, err := f.GenerateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}

	expiry := f.Now().Add(f.TTL)
	if err := accounts.UpsertPending(ctx, email, string(hash), expiry); err != nil {
		return fmt.Errorf("persist pending code: %w", err)
	}

	if err := f.Sender.SendVerificationCode(ctx, email, code); err != nil {
		// The code stays persisted; a retry will overwrite it.
		f.Log.Error("verification code delivery failed",
			zap.String("email", email),
			zap.String("role", string(role)),
			zap.Error(err))
		return &DeliveryError{Err: err}
	}

	f.Log.Info("verification code issued",
		zap.String("email", email),
		zap.String("role", string(role)),
		zap.Time("expires", expiry))
	return nil
}

// Finalize completes registration. Validation order is fixed and the
// first failure wins:
//
//  1. a record for the email must exist (ErrNotStarted);
//  2. the code window must still be open (ErrCodeExpired);
//  3. the submitted code must match (ErrCodeMismatch);
//  4. the record must not already be verified (ErrAlreadyVerified).
//
// A verified record carries no OTP state, so checks 2 and 3 pass
// vacuously and a duplicate finalization lands on check 4.
//
// On success the plaintext password is hashed here; stores never see it.
func (f *Flow) Finalize(ctx context.Context, role models.Role, email, code, password string, fin Finalization) (string, error) {
	accounts := f.accountsFor(role)

	rec, err := accounts.Pending(ctx, email)
	if err != nil {
		return "", fmt.Errorf("look up account: %w", err)
	}
	if rec == nil {
		return "", ErrNotStarted
	}
	if rec.OTPExpiry != nil && !f.Now().Before(*rec.OTPExpiry) {
		return "", ErrCodeExpired
	}
	if rec.OTPHash != "" {
		if bcrypt.CompareHashAndPassword([]byte(rec.OTPHash), []byte(code)) != nil {
			return "", ErrCodeMismatch
		}
	}
	if rec.Verified {
		return "", ErrAlreadyVerified
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	fin.Email = email
	fin.PasswordHash = string(pwHash)
	id, err := accounts.Finalize(ctx, fin)
	if err != nil {
		return "", err
	}

	f.Log.Info("registration finalized",
		zap.String("email", email),
		zap.String("role", string(role)),
		zap.String("account_id", id))
	return id, nil
}

// generateCode returns six random digits from crypto/rand.
func generateCode() (string, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint32(buf[:])
	return fmt.Sprintf("%06d", (n%900000)+100000), nil
}
