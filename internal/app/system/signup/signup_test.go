package signup_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/exoticc/storeapi/internal/app/system/signup"
	"github.com/exoticc/storeapi/internal/domain/models"
	"github.com/exoticc/storeapi/internal/testutil"
)

type flowFixture struct {
	flow      *signup.Flow
	customers *testutil.MemAccounts
	sellers   *testutil.MemAccounts
	sender    *testutil.CaptureSender
	now       time.Time
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()

	f := &flowFixture{
		customers: testutil.NewMemAccounts(),
		sellers:   testutil.NewMemAccounts(),
		sender:    testutil.NewCaptureSender(),
		now:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.flow = signup.New(f.customers, f.sellers, f.sender, zap.NewNop())
	f.flow.GenerateCode = func() (string, error) { return "123456", nil }
	f.flow.Now = func() time.Time { return f.now }
	return f
}

func (f *flowFixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func TestIssueCode_StoresHashAndSendsCode(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	if err := f.flow.IssueCode(ctx, models.RoleCustomer, "shopper@example.com"); err != nil {
		t.Fatalf("IssueCode: %v", err)
	}

	if got := f.sender.LastCode("shopper@example.com"); got != "123456" {
		t.Errorf("sent code = %q, want 123456", got)
	}

	_, _, _, _, verified, otpHash, otpExpiry, ok := f.customers.Record("shopper@example.com")
	if !ok {
		t.Fatal("expected a pending record")
	}
	if verified {
		t.Error("pending record should not be verified")
	}
	if otpHash == "123456" {
		t.Error("code must not be stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(otpHash), []byte("123456")); err != nil {
		t.Error("stored hash should match the sent code")
	}
	wantExpiry := f.now.Add(signup.CodeTTL)
	if otpExpiry == nil || !otpExpiry.Equal(wantExpiry) {
		t.Errorf("expiry = %v, want %v", otpExpiry, wantExpiry)
	}
}

func TestIssueCode_ReissueOverwrites(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	if err := f.flow.IssueCode(ctx, models.RoleCustomer, "shopper@example.com"); err != nil {
		t.Fatalf("first IssueCode: %v", err)
	}

	f.advance(5 * time.Minute)
	f.flow.GenerateCode = func() (string, error) { return "654321", nil }
	if err := f.flow.IssueCode(ctx, models.RoleCustomer, "shopper@example.com"); err != nil {
		t.Fatalf("second IssueCode: %v", err)
	}

	if n := f.sender.SentCount("shopper@example.com"); n != 2 {
		t.Fatalf("sent %d codes, want 2", n)
	}

	// Only the latest code finalizes.
	_, err := f.flow.Finalize(ctx, models.RoleCustomer, "shopper@example.com", "123456", "hunter22", signup.Finalization{Name: "Asha"})
	if !errors.Is(err, signup.ErrCodeMismatch) {
		t.Errorf("stale code: got %v, want ErrCodeMismatch", err)
	}
	if _, err := f.flow.Finalize(ctx, models.RoleCustomer, "shopper@example.com", "654321", "hunter22", signup.Finalization{Name: "Asha"}); err != nil {
		t.Errorf("fresh code: %v", err)
	}
}

func TestIssueCode_VerifiedAccountRefused(t *testing.T) {
	f := newFlowFixture(t)
	f.customers.SeedVerified("shopper@example.com", "Asha", "x")

	err := f.flow.IssueCode(context.Background(), models.RoleCustomer, "shopper@example.com")
	if !errors.Is(err, signup.ErrAlreadyVerified) {
		t.Errorf("got %v, want ErrAlreadyVerified", err)
	}
	if f.sender.SentCount("shopper@example.com") != 0 {
		t.Error("no mail should go to an already-registered address")
	}
}

func TestIssueCode_DeliveryFailureKeepsCode(t *testing.T) {
	f := newFlowFixture(t)
	f.sender.Err = errors.New("smtp: connection refused")

	err := f.flow.IssueCode(context.Background(), models.RoleCustomer, "shopper@example.com")

	var de *signup.DeliveryError
	if !errors.As(err, &de) {
		t.Fatalf("got %v, want DeliveryError", err)
	}
	// The pending record survives so a follow-up issue can overwrite it.
	if _, _, _, _, _, otpHash, _, ok := f.customers.Record("shopper@example.com"); !ok || otpHash == "" {
		t.Error("pending code should stay persisted after a delivery failure")
	}
}

func TestIssueCode_RolesAreIndependent(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	if err := f.flow.IssueCode(ctx, models.RoleCustomer, "both@example.com"); err != nil {
		t.Fatalf("customer IssueCode: %v", err)
	}
	if err := f.flow.IssueCode(ctx, models.RoleSeller, "both@example.com"); err != nil {
		t.Fatalf("seller IssueCode: %v", err)
	}

	if _, _, _, _, _, _, _, ok := f.customers.Record("both@example.com"); !ok {
		t.Error("customer record should exist")
	}
	if _, _, _, _, _, _, _, ok := f.sellers.Record("both@example.com"); !ok {
		t.Error("seller record should exist")
	}
}

func TestFinalize_HappyPath(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	if err := f.flow.IssueCode(ctx, models.RoleCustomer, "shopper@example.com"); err != nil {
		t.Fatalf("IssueCode: %v", err)
	}

	id, err := f.flow.Finalize(ctx, models.RoleCustomer, "shopper@example.com", "123456", "hunter22", signup.Finalization{Name: "Asha"})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if id == "" {
		t.Fatal("expected an account id")
	}

	gotID, name, _, pwHash, verified, otpHash, otpExpiry, _ := f.customers.Record("shopper@example.com")
	if gotID != id {
		t.Errorf("id mismatch: %q vs %q", gotID, id)
	}
	if name != "Asha" || !verified {
		t.Errorf("record = name %q verified %v", name, verified)
	}
	if otpHash != "" || otpExpiry != nil {
		t.Error("finalized record should carry no OTP residue")
	}
	if pwHash == "hunter22" {
		t.Error("password must not be stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(pwHash), []byte("hunter22")); err != nil {
		t.Error("stored hash should match the password")
	}
}

func TestFinalize_NoPendingRecord(t *testing.T) {
	f := newFlowFixture(t)

	_, err := f.flow.Finalize(context.Background(), models.RoleCustomer, "nobody@example.com", "123456", "hunter22", signup.Finalization{Name: "X"})
	if !errors.Is(err, signup.ErrNotStarted) {
		t.Errorf("got %v, want ErrNotStarted", err)
	}
}

func TestFinalize_ExpiredCode(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	if err := f.flow.IssueCode(ctx, models.RoleCustomer, "shopper@example.com"); err != nil {
		t.Fatalf("IssueCode: %v", err)
	}

	// One millisecond before the boundary the code is still good...
	f.advance(signup.CodeTTL - time.Millisecond)
	// ...but a wrong code still fails on the match check.
	if _, err := f.flow.Finalize(ctx, models.RoleCustomer, "shopper@example.com", "000000", "hunter22", signup.Finalization{Name: "X"}); !errors.Is(err, signup.ErrCodeMismatch) {
		t.Errorf("just inside window, wrong code: got %v, want ErrCodeMismatch", err)
	}

	// Exactly at the expiry instant the window is closed.
	f.advance(time.Millisecond)
	_, err := f.flow.Finalize(ctx, models.RoleCustomer, "shopper@example.com", "123456", "hunter22", signup.Finalization{Name: "X"})
	if !errors.Is(err, signup.ErrCodeExpired) {
		t.Errorf("at expiry instant: got %v, want ErrCodeExpired", err)
	}
}

func TestFinalize_ExpiryCheckedBeforeMatch(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	if err := f.flow.IssueCode(ctx, models.RoleCustomer, "shopper@example.com"); err != nil {
		t.Fatalf("IssueCode: %v", err)
	}
	f.advance(signup.CodeTTL + time.Minute)

	// Expired AND wrong: the expiry error wins.
	_, err := f.flow.Finalize(ctx, models.RoleCustomer, "shopper@example.com", "000000", "hunter22", signup.Finalization{Name: "X"})
	if !errors.Is(err, signup.ErrCodeExpired) {
		t.Errorf("got %v, want ErrCodeExpired", err)
	}
}

func TestFinalize_WrongCode(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	if err := f.flow.IssueCode(ctx, models.RoleCustomer, "shopper@example.com"); err != nil {
		t.Fatalf("IssueCode: %v", err)
	}

	_, err := f.flow.Finalize(ctx, models.RoleCustomer, "shopper@example.com", "999999", "hunter22", signup.Finalization{Name: "X"})
	if !errors.Is(err, signup.ErrCodeMismatch) {
		t.Errorf("got %v, want ErrCodeMismatch", err)
	}

	// The record is untouched; the right code still works.
	if _, err := f.flow.Finalize(ctx, models.RoleCustomer, "shopper@example.com", "123456", "hunter22", signup.Finalization{Name: "X"}); err != nil {
		t.Errorf("retry with correct code: %v", err)
	}
}

func TestFinalize_SecondAttemptConflicts(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	if err := f.flow.IssueCode(ctx, models.RoleCustomer, "shopper@example.com"); err != nil {
		t.Fatalf("IssueCode: %v", err)
	}
	if _, err := f.flow.Finalize(ctx, models.RoleCustomer, "shopper@example.com", "123456", "hunter22", signup.Finalization{Name: "Asha"}); err != nil {
		t.Fatalf("first Finalize: %v", err)
	}

	// Replaying the same valid request must conflict, not succeed,
	// even long after the original code window closed.
	f.advance(time.Hour)
	_, err := f.flow.Finalize(ctx, models.RoleCustomer, "shopper@example.com", "123456", "other-pass", signup.Finalization{Name: "Mallory"})
	if !errors.Is(err, signup.ErrAlreadyVerified) {
		t.Errorf("got %v, want ErrAlreadyVerified", err)
	}

	// The original profile is untouched.
	_, name, _, pwHash, _, _, _, _ := f.customers.Record("shopper@example.com")
	if name != "Asha" {
		t.Errorf("name = %q, want Asha", name)
	}
	if bcrypt.CompareHashAndPassword([]byte(pwHash), []byte("hunter22")) != nil {
		t.Error("original password should survive the replay")
	}
}

func TestFinalize_SellerStoreName(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	if err := f.flow.IssueCode(ctx, models.RoleSeller, "merchant@example.com"); err != nil {
		t.Fatalf("IssueCode: %v", err)
	}
	_, err := f.flow.Finalize(ctx, models.RoleSeller, "merchant@example.com", "123456", "hunter22", signup.Finalization{
		Name:        "Ravi",
		StoreName:   "The Corner Store",
		StoreNameCI: "the corner store",
	})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	_, _, storeName, _, verified, _, _, _ := f.sellers.Record("merchant@example.com")
	if storeName != "The Corner Store" || !verified {
		t.Errorf("seller record = store %q verified %v", storeName, verified)
	}
}

func TestFinalize_StoreNameTaken(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()
	f.sellers.TakenStoreNames["the corner store"] = true

	if err := f.flow.IssueCode(ctx, models.RoleSeller, "merchant@example.com"); err != nil {
		t.Fatalf("IssueCode: %v", err)
	}
	_, err := f.flow.Finalize(ctx, models.RoleSeller, "merchant@example.com", "123456", "hunter22", signup.Finalization{
		Name:        "Ravi",
		StoreName:   "The CORNER Store",
		StoreNameCI: "the corner store",
	})
	if !errors.Is(err, signup.ErrStoreNameTaken) {
		t.Errorf("got %v, want ErrStoreNameTaken", err)
	}
}

func TestIssueCode_ConcurrentLastWriterWins(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.flow.IssueCode(ctx, models.RoleCustomer, "busy@example.com")
		}()
	}
	wg.Wait()

	// Exactly one coherent record remains and the last delivered code
	// finalizes it.
	if _, _, _, _, verified, otpHash, _, ok := f.customers.Record("busy@example.com"); !ok || verified || otpHash == "" {
		t.Fatal("expected a single coherent pending record")
	}
	if _, err := f.flow.Finalize(ctx, models.RoleCustomer, "busy@example.com", "123456", "hunter22", signup.Finalization{Name: "Busy"}); err != nil {
		t.Errorf("finalize after concurrent issuance: %v", err)
	}
}

func TestGenerateCode_DefaultProducesSixDigits(t *testing.T) {
	flow := signup.New(testutil.NewMemAccounts(), testutil.NewMemAccounts(), testutil.NewCaptureSender(), zap.NewNop())

	for i := 0; i < 50; i++ {
		code, err := flow.GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q is not six digits", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("code %q contains a non-digit", code)
			}
		}
	}
}
