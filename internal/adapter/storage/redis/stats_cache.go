package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// StatsCache implements ports.StatsCache using Redis.
type StatsCache struct {
	client *goredis.Client
	prefix string
}

// NewStatsCache creates a new Redis-backed dashboard stats cache.
func NewStatsCache(client *goredis.Client) *StatsCache {
	return &StatsCache{
		client: client,
		prefix: "stats:",
	}
}

// Get retrieves a cached stats payload by key.
// Returns nil, nil if the key does not exist.
func (c *StatsCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis stats get: %w", err)
	}
	return val, nil
}

// Set stores a stats payload in the cache with TTL.
func (c *StatsCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := c.client.Set(ctx, c.prefix+key, value, ttl).Err()
	if err != nil {
		return fmt.Errorf("redis stats set: %w", err)
	}
	return nil
}

// Invalidate drops a cached stats payload. Called after any ledger mutation
// so the dashboard never serves stale balances for the full TTL.
func (c *StatsCache) Invalidate(ctx context.Context, key string) error {
	err := c.client.Del(ctx, c.prefix+key).Err()
	if err != nil {
		return fmt.Errorf("redis stats invalidate: %w", err)
	}
	return nil
}
