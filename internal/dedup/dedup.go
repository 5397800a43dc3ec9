// Package dedup suppresses replayed signals by idempotency key.
package dedup

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL is how long a seen idempotency key blocks replays.
const DefaultTTL = 6 * time.Hour

// Cache records idempotency keys and answers whether a key was already
// seen within the TTL window.
type Cache interface {
	// IsDuplicate reports whether key is currently fresh. A new or expired
	// key is recorded as seen and reported as not duplicate; a fresh key is
	// reported as duplicate without refreshing its timestamp.
	IsDuplicate(ctx context.Context, key string) (bool, error)
}

// MemoryCache is the in-process Cache. The window resets on restart.
type MemoryCache struct {
	ttl  time.Duration
	now  func() time.Time
	mu   sync.Mutex
	seen map[string]time.Time
}

// NewMemoryCache creates a MemoryCache with the given TTL. A zero ttl
// falls back to DefaultTTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return newMemoryCache(ttl, time.Now)
}

func newMemoryCache(ttl time.Duration, now func() time.Time) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		ttl:  ttl,
		now:  now,
		seen: make(map[string]time.Time),
	}
}

// IsDuplicate implements Cache. The check-and-insert is a single critical
// section; expired entries are purged opportunistically on each call.
func (c *MemoryCache) IsDuplicate(_ context.Context, key string) (bool, error) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, firstSeen := range c.seen {
		if now.Sub(firstSeen) > c.ttl {
			delete(c.seen, k)
		}
	}

	if _, ok := c.seen[key]; ok {
		return true, nil
	}
	c.seen[key] = now
	return false, nil
}

// Len returns the number of tracked keys. Expired entries may be counted
// until the next lookup purges them.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

var _ Cache = (*MemoryCache)(nil)
