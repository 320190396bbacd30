package store

import (
	"context"
	"time"
)

// Pinger is anything that can report connectivity, such as a pgx pool or a
// redis client wrapped with RedisPinger.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Health checks a fixed set of named dependencies.
type Health struct {
	checks map[string]Pinger
}

// NewHealth builds a checker. Nil pingers are reported as unhealthy.
func NewHealth(checks map[string]Pinger) *Health {
	return &Health{checks: checks}
}

// Check pings every dependency and reports per-name status and overall health.
func (h *Health) Check(ctx context.Context) (map[string]bool, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	res := make(map[string]bool, len(h.checks))
	ok := true
	for name, p := range h.checks {
		healthy := p != nil && p.Ping(ctx) == nil
		res[name] = healthy
		ok = ok && healthy
	}
	return res, ok
}
