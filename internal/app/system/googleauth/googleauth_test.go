package googleauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

const testClientID = "client-123.apps.googleusercontent.com"

func newStubGoogle(t *testing.T, tokeninfo, userinfo http.HandlerFunc) *Google {
	t.Helper()
	tiSrv := httptest.NewServer(tokeninfo)
	t.Cleanup(tiSrv.Close)
	uiSrv := httptest.NewServer(userinfo)
	t.Cleanup(uiSrv.Close)
	return NewForTest(testClientID, tiSrv.URL, uiSrv.URL, tiSrv.Client())
}

func rejectAll(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusUnauthorized)
}

func TestVerify_IDToken(t *testing.T) {
	g := newStubGoogle(t,
		func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("id_token") != "good-token" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{
				"aud":            testClientID,
				"sub":            "google-uid-1",
				"email":          "shopper@example.com",
				"email_verified": "true",
				"name":           "Asha Shopper",
			})
		},
		rejectAll,
	)

	info, err := g.Verify(context.Background(), "good-token")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if info.Subject != "google-uid-1" || info.Email != "shopper@example.com" || info.Name != "Asha Shopper" {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestVerify_WrongAudience(t *testing.T) {
	g := newStubGoogle(t,
		func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{
				"aud":            "someone-else.apps.googleusercontent.com",
				"sub":            "google-uid-1",
				"email":          "shopper@example.com",
				"email_verified": "true",
			})
		},
		rejectAll,
	)

	if _, err := g.Verify(context.Background(), "stolen-token"); err == nil {
		t.Fatal("expected rejection for wrong audience")
	}
}

func TestVerify_UnverifiedEmail(t *testing.T) {
	g := newStubGoogle(t,
		func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{
				"aud":            testClientID,
				"sub":            "google-uid-1",
				"email":          "shopper@example.com",
				"email_verified": "false",
			})
		},
		rejectAll,
	)

	if _, err := g.Verify(context.Background(), "tok"); err == nil {
		t.Fatal("expected rejection for unverified email")
	}
}

func TestVerify_AccessTokenFallback(t *testing.T) {
	g := newStubGoogle(t,
		rejectAll, // tokeninfo rejects: not an ID token
		func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer access-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{
				"id":    "google-uid-2",
				"email": "merchant@example.com",
				"name":  "Ravi Merchant",
			})
		},
	)

	info, err := g.Verify(context.Background(), "access-token")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if info.Subject != "google-uid-2" || info.Email != "merchant@example.com" {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestVerify_EmptyToken(t *testing.T) {
	g := newStubGoogle(t, rejectAll, rejectAll)
	if _, err := g.Verify(context.Background(), ""); err == nil {
		t.Fatal("expected rejection for empty token")
	}
}

func TestVerify_BothEndpointsReject(t *testing.T) {
	g := newStubGoogle(t, rejectAll, rejectAll)
	if _, err := g.Verify(context.Background(), "garbage"); err == nil {
		t.Fatal("expected rejection when both endpoints refuse the token")
	}
}
