// Package cache provides TTL-scoped counters backing the API rate
// limiter. Implementations must be safe for concurrent use.
package cache

import (
	"context"
	"time"
)

// Counter provides atomic windowed counting.
type Counter interface {
	// Increment adds delta to the counter and returns the new value. A
	// missing or expired key starts a fresh window with the given TTL.
	Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)

	// GetCount returns the current counter value, 0 when the key is
	// missing or its window has passed.
	GetCount(ctx context.Context, key string) (int64, error)

	// Reset clears the counter.
	Reset(ctx context.Context, key string) error

	// Close releases resources.
	Close() error
}
