// internal/app/system/googleauth/googleauth.go
//
// Package googleauth verifies Google sign-in tokens posted by the
// client. ID tokens are checked against the tokeninfo endpoint with an
// audience check; access tokens fall back to the userinfo endpoint.
package googleauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

// ErrInvalidToken is returned when Google rejects the token or the
// audience does not match ours.
var ErrInvalidToken = errors.New("googleauth: invalid token")

// UserInfo is the identity extracted from a verified token.
type UserInfo struct {
	Subject string // Google's stable account id
	Email   string
	Name    string
}

// Verifier checks a client-supplied Google token. The auth feature
// depends on this interface so tests can stub it.
type Verifier interface {
	Verify(ctx context.Context, token string) (*UserInfo, error)
}

const (
	defaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
	defaultUserInfoURL  = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// Google verifies tokens against Google's endpoints.
type Google struct {
	clientID string

	// Endpoint overrides for tests.
	tokenInfoURL string
	userInfoURL  string
	httpClient   *http.Client
}

// New builds a verifier for the given OAuth client ID.
func New(clientID string) *Google {
	return &Google{
		clientID:     clientID,
		tokenInfoURL: defaultTokenInfoURL,
		userInfoURL:  defaultUserInfoURL,
	}
}

// NewForTest builds a verifier pointed at stub endpoints.
func NewForTest(clientID, tokenInfoURL, userInfoURL string, client *http.Client) *Google {
	return &Google{
		clientID:     clientID,
		tokenInfoURL: tokenInfoURL,
		userInfoURL:  userInfoURL,
		httpClient:   client,
	}
}

type tokenInfoResponse struct {
	Aud           string `json:"aud"`
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
}

type userInfoResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Verify checks the token as an ID token first, then as an access
// token. Any path that cannot produce a verified email fails with
// ErrInvalidToken.
func (g *Google) Verify(ctx context.Context, token string) (*UserInfo, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	if info, err := g.verifyIDToken(ctx, token); err == nil {
		return info, nil
	}
	return g.fetchUserInfo(ctx, token)
}

func (g *Google) verifyIDToken(ctx context.Context, token string) (*UserInfo, error) {
	u := g.tokenInfoURL + "?id_token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	client := g.httpClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("googleauth: tokeninfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, ErrInvalidToken
	}

	var ti tokenInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&ti); err != nil {
		return nil, fmt.Errorf("googleauth: decode tokeninfo: %w", err)
	}
	if ti.Aud != g.clientID || ti.Email == "" || ti.EmailVerified != "true" {
		return nil, ErrInvalidToken
	}
	return &UserInfo{Subject: ti.Sub, Email: ti.Email, Name: ti.Name}, nil
}

// fetchUserInfo treats the token as an OAuth access token and asks the
// userinfo endpoint who it belongs to.
func (g *Google) fetchUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	if g.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("googleauth: userinfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, ErrInvalidToken
	}

	var ui userInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&ui); err != nil {
		return nil, fmt.Errorf("googleauth: decode userinfo: %w", err)
	}
	if ui.ID == "" || ui.Email == "" {
		return nil, ErrInvalidToken
	}
	return &UserInfo{Subject: ui.ID, Email: ui.Email, Name: ui.Name}, nil
}
