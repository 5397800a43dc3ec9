package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache, err := NewRedisCache(context.Background(), mr.Addr(), time.Hour)
	if err != nil {
		t.Fatalf("creating redis cache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache, mr
}

func TestRedisCacheDuplicate(t *testing.T) {
	cache, _ := newTestRedisCache(t)
	ctx := context.Background()

	dup, err := cache.IsDuplicate(ctx, "key-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dup {
		t.Fatal("first sighting must not be a duplicate")
	}

	dup, err = cache.IsDuplicate(ctx, "key-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dup {
		t.Fatal("second sighting must be a duplicate")
	}
}

func TestRedisCacheExpiry(t *testing.T) {
	cache, mr := newTestRedisCache(t)
	ctx := context.Background()

	if dup, _ := cache.IsDuplicate(ctx, "key"); dup {
		t.Fatal("first sighting must not be a duplicate")
	}

	mr.FastForward(30 * time.Minute)
	if dup, _ := cache.IsDuplicate(ctx, "key"); !dup {
		t.Fatal("key must still be fresh inside the TTL")
	}

	mr.FastForward(31 * time.Minute)
	if dup, _ := cache.IsDuplicate(ctx, "key"); dup {
		t.Fatal("expired key must be accepted again")
	}
}

func TestRedisCacheConnectFailure(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "127.0.0.1:1", time.Hour)
	if err == nil {
		t.Fatal("expected connection error")
	}
}
