package dedup

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeClock is an adjustable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(0, 0).UTC()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryCacheFirstSeen(t *testing.T) {
	clock := newFakeClock()
	cache := newMemoryCache(DefaultTTL, clock.Now)
	ctx := context.Background()

	dup, err := cache.IsDuplicate(ctx, "key-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dup {
		t.Fatal("first sighting must not be a duplicate")
	}

	dup, _ = cache.IsDuplicate(ctx, "key-1")
	if !dup {
		t.Fatal("second sighting within TTL must be a duplicate")
	}

	dup, _ = cache.IsDuplicate(ctx, "key-2")
	if dup {
		t.Fatal("distinct key must not be a duplicate")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	clock := newFakeClock()
	cache := newMemoryCache(DefaultTTL, clock.Now)
	ctx := context.Background()

	if dup, _ := cache.IsDuplicate(ctx, "key"); dup {
		t.Fatal("first sighting must not be a duplicate")
	}

	clock.Advance(DefaultTTL - time.Second)
	if dup, _ := cache.IsDuplicate(ctx, "key"); !dup {
		t.Fatal("key must still be fresh just inside the TTL")
	}

	// The duplicate check above must not have refreshed the timestamp: the
	// key expires on the first-seen schedule, two seconds later.
	clock.Advance(2 * time.Second)
	if dup, _ := cache.IsDuplicate(ctx, "key"); dup {
		t.Fatal("expired key must be accepted again")
	}

	// Re-admission starts a fresh window.
	if dup, _ := cache.IsDuplicate(ctx, "key"); !dup {
		t.Fatal("re-admitted key must be a duplicate within the new window")
	}
}

func TestMemoryCachePurge(t *testing.T) {
	clock := newFakeClock()
	cache := newMemoryCache(time.Hour, clock.Now)
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		cache.IsDuplicate(ctx, k)
	}
	if cache.Len() != 3 {
		t.Fatalf("expected 3 tracked keys, got %d", cache.Len())
	}

	clock.Advance(2 * time.Hour)
	cache.IsDuplicate(ctx, "d")
	if cache.Len() != 1 {
		t.Fatalf("expected expired keys purged, got %d tracked", cache.Len())
	}
}

func TestMemoryCacheConcurrent(t *testing.T) {
	cache := NewMemoryCache(time.Hour)
	ctx := context.Background()

	const workers = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dup, err := cache.IsDuplicate(ctx, "shared-key")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if !dup {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 1 {
		t.Fatalf("exactly one caller must be admitted for a shared key, got %d", admitted)
	}
}
