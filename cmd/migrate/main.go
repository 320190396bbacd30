package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"eventcheckin/internal/config"
	"eventcheckin/internal/store"
)

func main() {
	action := flag.String("action", "up", "migration action: up, down or version")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Env)

	pool, err := store.NewPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	m, err := store.NewMigrator(pool)
	if err != nil {
		logger.Error("create migrator", slog.Any("error", err))
		os.Exit(1)
	}
	defer m.Close()

	switch *action {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "version":
		var (
			version uint
			dirty   bool
		)
		version, dirty, err = m.Version()
		if err == nil {
			logger.Info("migration version", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
		}
	default:
		logger.Error("unknown action", slog.String("action", *action))
		os.Exit(2)
	}
	if err != nil {
		logger.Error("migration failed", slog.String("action", *action), slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("migration done", slog.String("action", *action))
}
