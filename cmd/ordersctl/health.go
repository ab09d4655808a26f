package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/jcmexdev/food-delivery/internal/pkg/interceptors"
)

// newHealthCmd queries the orders service's grpc.health.v1 endpoint.
func newHealthCmd(opts *options) *cobra.Command {
	var addr, service string
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the orders service over gRPC health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := withTimeout(cmd, opts)
			defer cancel()

			conn, err := grpc.NewClient(addr,
				grpc.WithTransportCredentials(insecure.NewCredentials()),
				grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
			)
			if err != nil {
				return fmt.Errorf("connect to %s: %w", addr, err)
			}
			defer conn.Close()

			resp, err := healthpb.NewHealthClient(conn).Check(
				interceptors.ContextWithPropagatedID(ctx),
				&healthpb.HealthCheckRequest{Service: service},
			)
			if err != nil {
				return fmt.Errorf("health check: %w", err)
			}

			out, err := protojson.MarshalOptions{Multiline: true, Indent: "  ", EmitUnpopulated: true}.Marshal(resp)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
				return fmt.Errorf("service %q is %s", service, resp.GetStatus())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "grpc-addr", envOr("ORDERS_GRPC_ADDR", "localhost:9090"), "orders service gRPC address")
	cmd.Flags().StringVar(&service, "service", "", "health service name; empty checks the whole server")
	return cmd
}
