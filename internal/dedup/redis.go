package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "dedup:"

// RedisCache is a Cache backed by redis, for deployments running more than
// one router replica. Expiry is delegated to redis key TTLs.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a RedisCache against addr and verifies connectivity.
func NewRedisCache(ctx context.Context, addr string, ttl time.Duration) (*RedisCache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

// IsDuplicate implements Cache. SETNX makes the check-and-insert atomic;
// a key that was already present keeps its original TTL.
func (c *RedisCache) IsDuplicate(ctx context.Context, key string) (bool, error) {
	set, err := c.client.SetNX(ctx, redisKeyPrefix+key, 1, c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check for %q: %w", key, err)
	}
	return !set, nil
}

// Close releases the underlying redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ Cache = (*RedisCache)(nil)
