// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/exoticc/storeapi/internal/app/system/httpjson"
	"github.com/exoticc/storeapi/internal/domain/models"
)

// DefaultCookieName is the session cookie name unless overridden in config.
const DefaultCookieName = "session"

// DefaultTTL is how long a session token stays valid.
const DefaultTTL = 30 * 24 * time.Hour

// SessionUser is the authenticated identity injected into r.Context().
// Role is re-derived from the database on every request, never read
// from the token, so a role change takes effect immediately.
type SessionUser struct {
	ID    string
	Name  string
	Email string
	Role  models.Role
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & “found?” flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithUser returns a request whose context carries u. Exported for
// tests that need to exercise protected handlers directly.
func WithUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// ErrUnknownAccount is the error a Fetcher returns (possibly wrapped)
// when the token subject matches no account. Authenticate treats it as
// a stale cookie; any other error is a store failure, not a verdict on
// the account.
var ErrUnknownAccount = errors.New("auth: no account for token subject")

// Fetcher resolves a token subject (account ID) to a live account.
// The accounts store implements this across both collections.
type Fetcher interface {
	FetchAccount(ctx context.Context, id string) (*SessionUser, error)
}

// Manager mints and verifies the signed session tokens carried in the
// session cookie. Tokens are HS256 JWTs whose subject is the account ID
// and nothing else; everything displayable is looked up per request.
type Manager struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
	secure     bool
	log        *zap.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithCookieName overrides the session cookie name.
func WithCookieName(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.cookieName = name
		}
	}
}

// WithTTL overrides the session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithClock overrides the time source. Tests only.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager builds a session manager. The signing secret is
// non-negotiable: an empty secret is a configuration error and the
// caller is expected to refuse to start.
func NewManager(secret string, secure bool, log *zap.Logger, opts ...Option) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("session secret is empty; provide ≥32 random chars")
	}
	if len(secret) < 32 {
		log.Warn("session secret is short; 32+ chars recommended",
			zap.Int("length", len(secret)))
	}
	m := &Manager{
		secret:     []byte(secret),
		cookieName: DefaultCookieName,
		ttl:        DefaultTTL,
		secure:     secure,
		log:        log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// CookieName returns the configured session cookie name.
func (m *Manager) CookieName() string { return m.cookieName }

// Issue mints a token for the given account ID and sets it as an
// HttpOnly, SameSite=Strict session cookie.
func (m *Manager) Issue(w http.ResponseWriter, accountID string) error {
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   accountID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("sign session token: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

// Clear expires the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// Subject verifies a raw token string and returns its subject (the
// account ID). Only HS256 is accepted.
func (m *Manager) Subject(raw string) (string, error) {
	tok, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return "", err
	}
	claims, ok := tok.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// Authenticate injects the session user into context when a valid
// cookie is present. Requests without a cookie, or with a stale or
// invalid one, continue unauthenticated; stale cookies are cleared so
// browsers stop resending them.
func (m *Manager) Authenticate(accounts Fetcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(m.cookieName)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			sub, err := m.Subject(c.Value)
			if err != nil {
				m.Clear(w)
				next.ServeHTTP(w, r)
				return
			}

			u, err := accounts.FetchAccount(r.Context(), sub)
			switch {
			case err == nil && u != nil:
				next.ServeHTTP(w, WithUser(r, u))
			case err == nil || errors.Is(err, ErrUnknownAccount):
				// Token is valid but the account is gone.
				m.Clear(w)
				next.ServeHTTP(w, r)
			default:
				// Store failure. The account may well still exist, so
				// the cookie stays put.
				m.log.Error("account lookup failed",
					zap.String("account_id", sub), zap.Error(err))
				httpjson.Error(w, http.StatusInternalServerError, "Server Error")
			}
		})
	}
}

// RequireSignedIn ensures there is a user in context (set by
// Authenticate). API callers get a JSON 401.
func (m *Manager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		m.Clear(w)
		httpjson.Error(w, http.StatusUnauthorized, "Authentication required.")
	})
}

// RequireRole ensures the signed-in user has one of the allowed roles.
// Not signed in → 401; signed in with the wrong role → 403.
func (m *Manager) RequireRole(allowed ...models.Role) func(http.Handler) http.Handler {
	set := make(map[models.Role]struct{}, len(allowed))
	for _, role := range allowed {
		set[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				m.Clear(w)
				httpjson.Error(w, http.StatusUnauthorized, "Authentication required.")
				return
			}
			if _, has := set[u.Role]; !has {
				httpjson.Error(w, http.StatusForbidden, "You do not have access to this resource.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
