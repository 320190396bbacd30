package httpmiddleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucket_Allow(t *testing.T) {
	now := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	l := NewTokenBucket(2, 60)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "kiosk-1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "kiosk-1")
	assert.False(t, ok, "bucket exhausted")

	ok, _ = l.Allow(ctx, "kiosk-2")
	assert.True(t, ok, "keys are independent")

	now = now.Add(time.Second)
	ok, _ = l.Allow(ctx, "kiosk-1")
	assert.True(t, ok, "refilled one token")
	ok, _ = l.Allow(ctx, "kiosk-1")
	assert.False(t, ok)
}

func TestRedisWindow_FailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	ok, err := NewRedisWindow(client, 1).Allow(context.Background(), "kiosk-1")
	assert.True(t, ok)
	assert.Error(t, err)
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(NewTokenBucket(1, 1), slog.New(slog.NewTextHandler(io.Discard, nil))))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	do := func(device string) int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		if device != "" {
			req.Header.Set(DeviceHeader, device)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do("kiosk-1"))
	assert.Equal(t, http.StatusTooManyRequests, do("kiosk-1"))
	assert.Equal(t, http.StatusOK, do("kiosk-2"))
	assert.Equal(t, http.StatusOK, do(""))
	assert.Equal(t, http.StatusTooManyRequests, do(""))
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, error) {
	return true, assert.AnError
}

func TestGinMiddleware_LimiterErrorLetsRequestThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(brokenLimiter{}, slog.New(slog.NewTextHandler(io.Discard, nil))))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
