// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/exoticc/storeapi/internal/app/system/httpjson"
)

// Limiter provides rate limiting using a sliding window algorithm.
// It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int           // max requests per window
	duration time.Duration // window duration
	cleanup  time.Duration // how often to clean old entries
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a new rate limiter.
// limit: maximum requests allowed per duration
// duration: the time window for counting requests
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		cleanup:  duration * 2, // drop entries older than 2x duration
	}
	go l.cleanupLoop()
	return l
}

// Allow checks if a request from the given key should be allowed.
// Returns true if allowed, false if rate limited.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, exists := l.windows[key]

	if !exists || now.After(w.expiresAt) {
		l.windows[key] = &window{
			count:     1,
			expiresAt: now.Add(l.duration),
		}
		return true
	}

	if w.count >= l.limit {
		return false
	}

	w.count++
	return true
}

// Reset clears the rate limit for a specific key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// cleanupLoop periodically removes expired entries to prevent memory leaks.
func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanup)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for key, w := range l.windows {
			if now.After(w.expiresAt) {
				delete(l.windows, key)
			}
		}
		l.mu.Unlock()
	}
}

// ClientIP extracts the client IP from an HTTP request. It checks
// X-Forwarded-For and X-Real-IP first (for proxied requests), then
// falls back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}
	return ip
}

// Middleware returns a chi-compatible middleware that limits each
// client IP to the limiter's window. Over-limit requests get a JSON 429.
//
// Mounted on the whole /api subtree with the configured request budget
// (default 150 requests per 15 minutes per IP).
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(ClientIP(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(int(l.duration/time.Second)))
			httpjson.Error(w, http.StatusTooManyRequests,
				"Too many requests. Please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CodeLimiter throttles verification-code issuance per email address so
// one address cannot be used to pump out unlimited OTP mail. It also
// caps requests per IP to blunt sweeps across many addresses.
type CodeLimiter struct {
	ipLimiter    *Limiter
	emailLimiter *Limiter
}

// NewCodeLimiter creates a limiter configured for OTP issuance.
// Defaults: 20 requests per IP per 15 minutes, 3 codes per email per
// 10 minutes.
func NewCodeLimiter() *CodeLimiter {
	return &CodeLimiter{
		ipLimiter:    New(20, 15*time.Minute),
		emailLimiter: New(3, 10*time.Minute),
	}
}

// Check verifies whether a code request should be allowed.
// Returns (allowed, reason) where reason is safe to show the caller.
func (cl *CodeLimiter) Check(r *http.Request, email string) (bool, string) {
	if !cl.ipLimiter.Allow(ClientIP(r)) {
		return false, "Too many verification requests. Please wait before trying again."
	}
	if email != "" {
		key := strings.ToLower(strings.TrimSpace(email))
		if !cl.emailLimiter.Allow(key) {
			return false, "Too many codes requested for this email. Please wait a few minutes."
		}
	}
	return true, ""
}

// ResetEmail clears the per-email limit, used after a successful
// registration so the address is not penalized on a later re-signup.
func (cl *CodeLimiter) ResetEmail(email string) {
	cl.emailLimiter.Reset(strings.ToLower(strings.TrimSpace(email)))
}
