package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jcmexdev/food-delivery/internal/config"
	"github.com/jcmexdev/food-delivery/internal/frontend/infra/gateway"
	"github.com/jcmexdev/food-delivery/internal/frontend/infra/httpx"
	"github.com/jcmexdev/food-delivery/internal/frontend/session"
	"github.com/jcmexdev/food-delivery/internal/pkg/cache"
	"github.com/jcmexdev/food-delivery/internal/pkg/metrics"
	"github.com/jcmexdev/food-delivery/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.LoadFrontend(getEnv("CONFIG_DIR", "."))
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	telemetry.InitLogger(cfg.OTel.ServiceName, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("frontend stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Frontend) error {
	shutdownTracer := telemetry.ShutdownFunc(telemetry.NoopShutdown)
	if cfg.OTel.Enabled {
		s, err := telemetry.SetupTracer(ctx, cfg.OTel.ServiceName)
		if err != nil {
			return err
		}
		shutdownTracer = s
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	var store session.Store = session.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis.Addr, "frontend")
		defer redisCache.Close()
		store = session.NewCacheStore(redisCache)
		slog.Info("sessions stored in redis", "redis_addr", cfg.Redis.Addr)
	}
	if cfg.Session.SecretKey == "your-secret-key-here" {
		slog.Warn("using the default session secret; set SECRET_KEY in production")
	}
	sessions := session.NewManager(store, cfg.Session.SecretKey, cfg.Session.TTL,
		strings.HasPrefix(cfg.PublicURL, "https://"))

	m := metrics.New("frontend")
	handler, err := httpx.NewHandler(gateway.NewClient(cfg.Gateway.URL, m), sessions, cfg.PublicURL)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           httpx.NewRouter(handler, m),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("frontend running", "addr", srv.Addr, "gateway_url", cfg.Gateway.URL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}
	return serveErr
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
