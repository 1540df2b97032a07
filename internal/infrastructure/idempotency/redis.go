package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "idem:order:"

// RedisGuard holds claims as SETNX keys with a TTL, shared by every order-service replica.
type RedisGuard struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisGuard(rdb redis.Cmdable, ttl time.Duration) *RedisGuard {
	return &RedisGuard{rdb: rdb, ttl: ttl}
}

func (g *RedisGuard) Key(key string) string {
	return keyPrefix + key
}

func (g *RedisGuard) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, g.Key(key), "1", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("idempotency: setnx: %w", err)
	}
	return ok, nil
}

func (g *RedisGuard) Release(ctx context.Context, key string) error {
	if err := g.rdb.Del(ctx, g.Key(key)).Err(); err != nil {
		return fmt.Errorf("idempotency: del: %w", err)
	}
	return nil
}
