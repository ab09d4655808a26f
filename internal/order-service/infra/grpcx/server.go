// Package grpcx exposes the orders service over gRPC. Only the standard
// grpc.health.v1 service is registered.
package grpcx

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jcmexdev/food-delivery/internal/pkg/interceptors"
)

// ServiceName is the health service name clients can query besides "".
const ServiceName = "fooddelivery.orders"

type Server struct {
	GRPC   *grpc.Server
	health *health.Server
}

func NewServer() *Server {
	s := &Server{
		GRPC: grpc.NewServer(
			grpc.StatsHandler(otelgrpc.NewServerHandler()),
			grpc.UnaryInterceptor(interceptors.TraceServerInterceptor()),
		),
		health: health.NewServer(),
	}
	healthpb.RegisterHealthServer(s.GRPC, s.health)
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

func (s *Server) SetServing(ok bool) {
	if ok {
		s.setStatus(healthpb.HealthCheckResponse_SERVING)
		return
	}
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
}

func (s *Server) setStatus(st healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Shutdown marks every service NOT_SERVING and stops the server.
func (s *Server) Shutdown() {
	s.health.Shutdown()
	s.GRPC.GracefulStop()
}

// WatchDB pings db every interval and mirrors the result into the health
// status until ctx is done.
func (s *Server) WatchDB(ctx context.Context, db *sql.DB, interval time.Duration) {
	check := func() {
		pingCtx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()
		err := db.PingContext(pingCtx)
		if err != nil && ctx.Err() == nil {
			slog.WarnContext(ctx, "database ping failed", "error", err)
		}
		s.SetServing(err == nil)
	}

	check()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			check()
		}
	}
}
