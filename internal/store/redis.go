package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedis connects to redis with short timeouts; kiosks should not wait on a
// slow queue or limiter.
func NewRedis(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
}

// RedisPinger exposes a redis client as a health check.
func RedisPinger(c *redis.Client) Pinger {
	return PingFunc(func(ctx context.Context) error {
		return c.Ping(ctx).Err()
	})
}
