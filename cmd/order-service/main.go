package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jcmexdev/food-delivery/internal/config"
	sagasqlite "github.com/jcmexdev/food-delivery/internal/coordinator/sagalog/sqlite"
	"github.com/jcmexdev/food-delivery/internal/order-service/adapters/catalog"
	"github.com/jcmexdev/food-delivery/internal/order-service/adapters/events"
	"github.com/jcmexdev/food-delivery/internal/order-service/adapters/sqlite"
	"github.com/jcmexdev/food-delivery/internal/order-service/app"
	"github.com/jcmexdev/food-delivery/internal/order-service/infra/grpcx"
	"github.com/jcmexdev/food-delivery/internal/order-service/infra/httpx"
	"github.com/jcmexdev/food-delivery/internal/order-service/ports"
	"github.com/jcmexdev/food-delivery/internal/pkg/cache"
	"github.com/jcmexdev/food-delivery/internal/pkg/metrics"
	"github.com/jcmexdev/food-delivery/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.LoadOrders(getEnv("CONFIG_DIR", "."))
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	telemetry.InitLogger(cfg.OTel.ServiceName, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("order service stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Orders) error {
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

	db, err := sqlite.Open(ctx, cfg.DB.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	repo, err := sqlite.New(ctx, db)
	if err != nil {
		return err
	}
	sagaLogs, err := sagasqlite.New(ctx, db)
	if err != nil {
		return err
	}

	m := metrics.New("orders")
	peer := catalog.NewClient(cfg.Catalog.URL, cfg.Catalog.Timeout, m)

	var lookup ports.Catalog = peer
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis.Addr, "orders")
		defer redisCache.Close()
		lookup = catalog.NewCachedCatalog(peer, redisCache, cfg.Catalog.CacheTTL)
		slog.Info("catalog cache enabled", "redis_addr", cfg.Redis.Addr, "ttl", cfg.Catalog.CacheTTL)
	}

	deps := app.Deps{
		Repo:     repo,
		Catalog:  lookup,
		Notifier: peer,
		SagaLog:  sagaLogs,
		Metrics:  m,
	}
	if brokers := cfg.Kafka.BrokerList(); len(brokers) > 0 {
		if err := events.EnsureTopic(ctx, brokers, cfg.Kafka.Topic); err != nil {
			slog.Warn("could not ensure kafka topic", "topic", cfg.Kafka.Topic, "error", err)
		}
		publisher := events.NewKafkaPublisher(brokers, cfg.Kafka.Topic)
		defer publisher.Close()
		deps.Publisher = publisher
		slog.Info("status events enabled", "brokers", brokers, "topic", cfg.Kafka.Topic)
	}

	svc := app.NewOrderService(deps)

	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           httpx.NewRouter(httpx.NewHandler(svc), m),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpcx.NewServer()
	lis, err := net.Listen("tcp", ":"+cfg.GRPC.Port)
	if err != nil {
		return err
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go grpcServer.WatchDB(watchCtx, db, 15*time.Second)

	errCh := make(chan error, 2)
	go func() {
		slog.Info("order service gRPC health running", "addr", lis.Addr().String())
		if err := grpcServer.GRPC.Serve(lis); err != nil {
			errCh <- err
		}
	}()
	go func() {
		slog.Info("order service HTTP running", "addr", httpServer.Addr, "catalog_url", cfg.Catalog.URL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case serveErr = <-errCh:
	}

	stopWatch()
	grpcServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
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
