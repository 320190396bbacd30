package httpmiddleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// DeviceHeader identifies a kiosk. Requests without it are limited per IP.
const DeviceHeader = "X-Device-ID"

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// TokenBucket is an in-memory limiter for a single API process.
type TokenBucket struct {
	capacity int
	rate     int
	now      func() time.Time

	mu    sync.Mutex
	state map[string]*bucket
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewTokenBucket creates a limiter with capacity tokens refilled at perMinute.
func NewTokenBucket(capacity, perMinute int) *TokenBucket {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &TokenBucket{
		capacity: capacity,
		rate:     perMinute,
		now:      time.Now,
		state:    make(map[string]*bucket),
	}
}

func (l *TokenBucket) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.state[key]
	if !ok {
		l.state[key] = &bucket{tokens: l.capacity - 1, last: now}
		return true, nil
	}
	refill := int(now.Sub(b.last).Minutes() * float64(l.rate))
	if refill > 0 {
		b.tokens = min(b.tokens+refill, l.capacity)
		b.last = now
	}
	if b.tokens <= 0 {
		return false, nil
	}
	b.tokens--
	return true, nil
}

// RedisWindow is a fixed one minute window shared by every API process.
type RedisWindow struct {
	client *redis.Client
	limit  int
	prefix string
	now    func() time.Time
}

func NewRedisWindow(client *redis.Client, perMinute int) *RedisWindow {
	return &RedisWindow{client: client, limit: perMinute, prefix: "ratelimit:", now: time.Now}
}

// Allow fails open: when redis is unreachable the request proceeds and the
// error is returned for logging.
func (l *RedisWindow) Allow(ctx context.Context, key string) (bool, error) {
	window := l.now().Unix() / 60
	k := fmt.Sprintf("%s%s:%d", l.prefix, key, window)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, 2*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return incr.Val() <= int64(l.limit), nil
}

// GinMiddleware enforces l per device, falling back to the client IP.
func GinMiddleware(l Limiter, logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		key := c.GetHeader(DeviceHeader)
		if key == "" {
			key = c.ClientIP()
		}
		if key == "" {
			key = "unknown"
		}
		ok, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warn("rate limiter unavailable", slog.String("key", key), slog.Any("error", err))
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}
