package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"eventcheckin/internal/attendance"
	"eventcheckin/internal/config"
	"eventcheckin/internal/directory"
	"eventcheckin/internal/handler"
	"eventcheckin/internal/httpmiddleware"
	"eventcheckin/internal/memstore"
	"eventcheckin/internal/metrics"
	"eventcheckin/internal/queue"
	"eventcheckin/internal/registry"
	"eventcheckin/internal/report"
	"eventcheckin/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, logger); err != nil {
		logger.Error("http server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

type eventStore interface {
	attendance.Registry
	handler.EventLister
}

type recordStore interface {
	attendance.Store
	handler.AttendanceLog
}

type backends struct {
	directory attendance.Directory
	events    eventStore
	records   recordStore
	reports   handler.Reporter
	checks    map[string]store.Pinger
	close     func()
}

func openBackends(ctx context.Context, cfg config.App, logger *slog.Logger) (*backends, error) {
	if cfg.StoreBackend == "memory" {
		ms := memstore.New(cfg.Location())
		if cfg.SeedFile != "" {
			f, err := os.Open(cfg.SeedFile)
			if err != nil {
				return nil, fmt.Errorf("open seed: %w", err)
			}
			defer f.Close()
			if err := ms.LoadSeed(f); err != nil {
				return nil, err
			}
			logger.Info("seed loaded", slog.String("file", cfg.SeedFile))
		}
		return &backends{
			directory: ms,
			events:    ms,
			records:   ms,
			reports:   ms,
			checks:    map[string]store.Pinger{},
			close:     func() {},
		}, nil
	}

	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.MigrateOnStart {
		m, err := store.NewMigrator(pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		// The migrator shares the pool and is left open with it.
		if err := m.Up(); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("migrations applied")
	}
	return &backends{
		directory: directory.NewRepository(pool),
		events:    registry.NewRepository(pool),
		records:   attendance.NewRepository(pool),
		reports:   report.NewRepository(pool, cfg.Location()),
		checks:    map[string]store.Pinger{"db": pool},
		close:     pool.Close,
	}, nil
}

func runHTTP(cfg config.App, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	be, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer be.close()

	var redisClient *redis.Client
	if cfg.UsesRedis() {
		redisClient = store.NewRedis(cfg.RedisAddr)
		defer redisClient.Close()
		be.checks["redis"] = store.RedisPinger(redisClient)
	}

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		mq := queue.NewInMemory(64)
		msgs, err := mq.Consume(ctx)
		if err != nil {
			return err
		}
		// No separate worker reads an in-process queue, so reconcile here.
		go attendance.NewReconciler(be.events, logger).Run(ctx, msgs)
		q = mq
	} else {
		q = queue.NewRedisQueue(redisClient, queue.DefaultKey)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := attendance.NewService(be.directory, be.events, be.records,
		attendance.WithLocation(cfg.Location()),
		attendance.WithLogger(logger),
		attendance.WithMetrics(metrics.New(reg)),
		attendance.WithPublisher(q),
	)

	var limiter httpmiddleware.Limiter = httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	if cfg.RateLimitBackend == "redis" {
		limiter = httpmiddleware.NewRedisWindow(redisClient, cfg.RateLimitPerMin)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", httpmiddleware.DeviceHeader},
		AllowCredentials: !allowsAnyOrigin(cfg.CORSOrigins),
		MaxAge:           24 * time.Hour,
	}))
	r.Use(securityHeaders())

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := r.Group("/")
	api.Use(httpmiddleware.GinMiddleware(limiter, logger))
	handler.New(handler.Deps{
		Engine:         svc,
		Events:         be.events,
		Attendance:     be.records,
		Reports:        be.reports,
		Health:         store.NewHealth(be.checks),
		Logger:         logger,
		StreamInterval: cfg.StreamInterval,
	}).Register(api)

	// No WriteTimeout: the attendance stream holds its response open.
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			slog.String("addr", srv.Addr),
			slog.String("store", cfg.StoreBackend),
			slog.String("queue", cfg.QueueBackend),
			slog.String("timezone", cfg.Location().String()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced shutdown", slog.Any("error", err))
	}
	logger.Info("server exited")
	return nil
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// securityHeaders sets browser hardening headers on every response.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
