package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/phrazzld/marketplace-api/internal/config"
	"github.com/phrazzld/marketplace-api/internal/domain"
)

const pingTimeout = 3 * time.Second

// Limiter is satisfied by *redis_rate.Limiter.
type Limiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// Connect creates a redis client for cfg and verifies it with a ping.
func Connect(ctx context.Context, cfg config.RateLimitConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0, // use default DB
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w: failed to ping redis at %s: %v", domain.ErrDependency, cfg.RedisAddr, err)
	}
	return rdb, nil
}

// NewLimiter creates a GCRA limiter backed by rdb.
func NewLimiter(rdb *redis.Client) *redis_rate.Limiter {
	return redis_rate.NewLimiter(rdb)
}

// PerMinute returns the limit allowing n requests per minute.
func PerMinute(n int) redis_rate.Limit {
	return redis_rate.PerMinute(n)
}
