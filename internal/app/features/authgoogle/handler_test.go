package authgoogle

import (
	"context"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/exoticc/storeapi/internal/app/system/auth"
	"github.com/exoticc/storeapi/internal/app/system/googleauth"
	"github.com/exoticc/storeapi/internal/domain/models"
	"github.com/exoticc/storeapi/internal/testutil"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeVerifier struct {
	info *googleauth.UserInfo
	err  error
}

func (f *fakeVerifier) Verify(context.Context, string) (*googleauth.UserInfo, error) {
	return f.info, f.err
}

type fakeCustomers struct {
	byGoogleID map[string]*models.Customer
	byEmail    map[string]*models.Customer

	linked  map[primitive.ObjectID]string
	created *models.Customer
}

func newFakeCustomers() *fakeCustomers {
	return &fakeCustomers{
		byGoogleID: map[string]*models.Customer{},
		byEmail:    map[string]*models.Customer{},
		linked:     map[primitive.ObjectID]string{},
	}
}

func (f *fakeCustomers) GetByGoogleID(_ context.Context, googleID string) (*models.Customer, error) {
	if c, ok := f.byGoogleID[googleID]; ok {
		return c, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeCustomers) GetByEmail(_ context.Context, email string) (*models.Customer, error) {
	if c, ok := f.byEmail[email]; ok {
		return c, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeCustomers) LinkGoogle(_ context.Context, id primitive.ObjectID, googleID string) error {
	f.linked[id] = googleID
	return nil
}

func (f *fakeCustomers) CreateFromGoogle(_ context.Context, email, name, googleID string) (*models.Customer, error) {
	c := &models.Customer{
		ID:       primitive.NewObjectID(),
		Email:    email,
		Name:     name,
		GoogleID: googleID,
		Verified: true,
	}
	f.created = c
	return c, nil
}

func newHandler(t *testing.T, v googleauth.Verifier, fc *fakeCustomers) *Handler {
	t.Helper()
	sessions, err := auth.NewManager(testSecret, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return NewHandler(v, fc, sessions, zap.NewNop())
}

func post(t *testing.T, h *Handler, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.NewJSONRequest(t, "POST", "/google", map[string]string{"token": token})
	rec := httptest.NewRecorder()
	h.ServeGoogleLogin(rec, req)
	return rec
}

func TestGoogleLogin_ReturningUser(t *testing.T) {
	fc := newFakeCustomers()
	existing := &models.Customer{
		ID:       primitive.NewObjectID(),
		Email:    "asha@example.com",
		Name:     "Asha",
		GoogleID: "sub-1",
		Verified: true,
	}
	fc.byGoogleID["sub-1"] = existing
	h := newHandler(t, &fakeVerifier{info: &googleauth.UserInfo{Subject: "sub-1", Email: "asha@example.com", Name: "Asha"}}, fc)

	rec := post(t, h, "tok")
	if rec.Code != 200 {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if testutil.SessionCookie(rec, auth.DefaultCookieName) == nil {
		t.Error("expected a session cookie")
	}
	var got profile
	testutil.DecodeJSON(t, rec, &got)
	if got.ID != existing.ID.Hex() || got.Role != "Customer" {
		t.Errorf("profile = %+v", got)
	}
}

func TestGoogleLogin_LinksExistingEmailAccount(t *testing.T) {
	fc := newFakeCustomers()
	existing := &models.Customer{
		ID:       primitive.NewObjectID(),
		Email:    "asha@example.com",
		Name:     "Asha",
		Verified: true,
	}
	fc.byEmail["asha@example.com"] = existing
	h := newHandler(t, &fakeVerifier{info: &googleauth.UserInfo{Subject: "sub-1", Email: "asha@example.com", Name: "Asha"}}, fc)

	rec := post(t, h, "tok")
	if rec.Code != 200 {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if fc.linked[existing.ID] != "sub-1" {
		t.Error("expected the google id to be linked")
	}
}

func TestGoogleLogin_CreatesNewCustomer(t *testing.T) {
	fc := newFakeCustomers()
	h := newHandler(t, &fakeVerifier{info: &googleauth.UserInfo{Subject: "sub-2", Email: "new@example.com", Name: "New Person"}}, fc)

	rec := post(t, h, "tok")
	if rec.Code != 201 {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if fc.created == nil || !fc.created.Verified || fc.created.GoogleID != "sub-2" {
		t.Errorf("created = %+v", fc.created)
	}
}

func TestGoogleLogin_NameDefaultsToLocalPart(t *testing.T) {
	fc := newFakeCustomers()
	h := newHandler(t, &fakeVerifier{info: &googleauth.UserInfo{Subject: "sub-3", Email: "dev.alice@example.com"}}, fc)

	rec := post(t, h, "tok")
	if rec.Code != 201 {
		t.Fatalf("status = %d", rec.Code)
	}
	if fc.created.Name != "dev.alice" {
		t.Errorf("name = %q, want dev.alice", fc.created.Name)
	}
}

func TestGoogleLogin_InvalidToken(t *testing.T) {
	h := newHandler(t, &fakeVerifier{err: googleauth.ErrInvalidToken}, newFakeCustomers())

	rec := post(t, h, "bad")
	if rec.Code != 401 {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestGoogleLogin_MissingToken(t *testing.T) {
	h := newHandler(t, &fakeVerifier{}, newFakeCustomers())

	rec := post(t, h, "")
	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
