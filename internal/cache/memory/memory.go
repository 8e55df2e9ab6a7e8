// Package memory provides the in-process cache.Counter implementation.
package memory

import (
	"context"
	"sync"
	"time"
)

// counterItem is one counter window.
type counterItem struct {
	value     int64
	expiresAt time.Time
}

func (c *counterItem) expired() bool {
	return time.Now().After(c.expiresAt)
}

// Counter is an in-memory TTL counter. A background goroutine sweeps
// expired windows so abandoned keys do not accumulate.
type Counter struct {
	mu         sync.Mutex
	counters   map[string]*counterItem
	defaultTTL time.Duration
	stopClean  chan struct{}
	closeOnce  sync.Once
}

// New creates a Counter. cleanupInterval controls how often expired
// windows are swept; 0 disables the sweeper.
func New(defaultTTL, cleanupInterval time.Duration) *Counter {
	c := &Counter{
		counters:   make(map[string]*counterItem),
		defaultTTL: defaultTTL,
		stopClean:  make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go c.cleanupLoop(cleanupInterval)
	}
	return c
}

func (c *Counter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stopClean:
			return
		}
	}
}

func (c *Counter) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for k, v := range c.counters {
		if now.After(v.expiresAt) {
			delete(c.counters, k)
		}
	}
}

// Increment adds delta to the counter, starting a fresh window when the
// key is missing or expired.
func (c *Counter) Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	counter, ok := c.counters[key]
	if !ok || counter.expired() {
		counter = &counterItem{expiresAt: time.Now().Add(ttl)}
		c.counters[key] = counter
	}
	counter.value += delta
	return counter.value, nil
}

// GetCount returns the current value without touching the window.
func (c *Counter) GetCount(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	counter, ok := c.counters[key]
	if !ok || counter.expired() {
		return 0, nil
	}
	return counter.value, nil
}

// Reset clears the counter.
func (c *Counter) Reset(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.counters, key)
	return nil
}

// Close stops the sweeper goroutine.
func (c *Counter) Close() error {
	c.closeOnce.Do(func() { close(c.stopClean) })
	return nil
}
