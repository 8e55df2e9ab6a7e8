// Package ratelimit applies per-client request limits over a windowed
// counter.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openregistry/registry-go/internal/api"
	"github.com/openregistry/registry-go/internal/cache"
)

var ErrRateLimited = errors.New("rate limit exceeded")

// Config defines the limiter parameters.
type Config struct {
	// RequestsPerWindow is the maximum requests allowed per window.
	RequestsPerWindow int64

	// Window is the counting window.
	Window time.Duration

	// KeyPrefix is prepended to all counter keys.
	KeyPrefix string
}

// DefaultConfig returns the default limiter parameters.
func DefaultConfig() *Config {
	return &Config{
		RequestsPerWindow: 300,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit:",
	}
}

// Limiter counts requests per client key against a windowed quota.
type Limiter struct {
	counter cache.Counter
	config  *Config
}

// New creates a Limiter over the counter backend.
func New(c cache.Counter, cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Limiter{counter: c, config: cfg}
}

// Result is one quota decision.
type Result struct {
	Allowed   bool
	Remaining int64
	ResetAt   time.Time
}

// Allow counts the request and reports whether it fits the quota.
func (l *Limiter) Allow(ctx context.Context, key string) (*Result, error) {
	count, err := l.counter.Increment(ctx, l.config.KeyPrefix+key, 1, l.config.Window)
	if err != nil {
		return nil, err
	}

	remaining := l.config.RequestsPerWindow - count
	if remaining < 0 {
		remaining = 0
	}
	return &Result{
		Allowed:   count <= l.config.RequestsPerWindow,
		Remaining: remaining,
		ResetAt:   time.Now().Add(l.config.Window),
	}, nil
}

// Reset clears the quota for a key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	return l.counter.Reset(ctx, l.config.KeyPrefix+key)
}

// KeyFromRequest extracts the client key: the first hop of
// X-Forwarded-For when present, otherwise RemoteAddr without the port.
func KeyFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}

	addr := r.RemoteAddr
	if i := strings.LastIndexByte(addr, ':'); i >= 0 {
		return addr[:i]
	}
	return addr
}

// Middleware enforces the quota per client key. Over-quota requests get
// 429 with the standard error envelope; a counter failure lets the
// request through rather than taking the API down with the counter.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result, err := l.Allow(r.Context(), KeyFromRequest(r))
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", l.config.RequestsPerWindow))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", result.ResetAt.Unix()))

		if !result.Allowed {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(time.Until(result.ResetAt).Seconds())))
			api.WriteError(w, http.StatusTooManyRequests, api.ReasonRateLimited, "too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}
