package config

import (
	"log/slog"
	"os"
)

// NewLogger returns a JSON logger in production and a text logger otherwise.
func NewLogger(env string) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: env == "dev"}

	var handler slog.Handler
	if env == "production" || env == "prod" {
		opts.Level = slog.LevelInfo
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
