package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"eventcheckin/internal/attendance"
	"eventcheckin/internal/config"
	"eventcheckin/internal/queue"
	"eventcheckin/internal/registry"
	"eventcheckin/internal/store"
)

// Worker consumes check-in notifications and converges event promotion.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Env)

	if cfg.QueueBackend != "redis" || cfg.StoreBackend != "postgres" {
		logger.Error("worker needs QUEUE_BACKEND=redis and STORE_BACKEND=postgres; the API reconciles in-process otherwise")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	q := queue.NewRedisQueue(redisClient, queue.DefaultKey)
	messages, err := q.Consume(ctx)
	if err != nil {
		logger.Error("queue consume init failed", slog.Any("error", err))
		return
	}

	logger.Info("worker started, waiting for messages", slog.String("queue", queue.DefaultKey))
	attendance.NewReconciler(registry.NewRepository(pool), logger).Run(ctx, messages)
	logger.Info("worker stopped")
}
