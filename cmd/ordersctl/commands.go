package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jcmexdev/food-delivery/internal/frontend/infra/gateway"
)

type options struct {
	gatewayURL string
	ordersURL  string
	timeout    time.Duration
}

func (o *options) client() *gateway.Client {
	return gateway.NewClient(strings.TrimRight(o.gatewayURL, "/"), nil)
}

// historyClient talks to the orders service directly when --orders-url is
// set; the gateway does not always proxy the history endpoint.
func (o *options) historyClient() *gateway.Client {
	if o.ordersURL != "" {
		return gateway.NewClient(strings.TrimRight(o.ordersURL, "/"), nil)
	}
	return o.client()
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "ordersctl",
		Short:         "Inspect and update food delivery orders",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.gatewayURL, "gateway", envOr("GATEWAY_URL", "http://localhost:3000/api"), "API gateway base URL")
	root.PersistentFlags().StringVar(&opts.ordersURL, "orders-url", os.Getenv("ORDERS_URL"), "orders service base URL, used for history")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "overall command timeout")

	orders := &cobra.Command{
		Use:   "orders",
		Short: "Work with orders",
	}
	orders.AddCommand(
		newListCmd(opts),
		newGetCmd(opts),
		newSetStatusCmd(opts),
		newHistoryCmd(opts),
	)
	root.AddCommand(orders, newHealthCmd(opts))
	return root
}

func newListCmd(opts *options) *cobra.Command {
	var userID, restaurantID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders (all, by --user or by --restaurant)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID != "" && restaurantID != "" {
				return errors.New("--user and --restaurant are mutually exclusive")
			}
			ctx, cancel := withTimeout(cmd, opts)
			defer cancel()

			c := opts.client()
			var (
				v   any
				err error
			)
			switch {
			case userID != "":
				v, err = c.UserOrders(ctx, userID)
			case restaurantID != "":
				v, err = c.RestaurantOrders(ctx, restaurantID)
			default:
				v, err = c.AdminOrders(ctx)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), v)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "only orders of this user")
	cmd.Flags().StringVar(&restaurantID, "restaurant", "", "only orders of this restaurant")
	return cmd
}

func newGetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get ORDER_ID",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd, opts)
			defer cancel()
			o, err := opts.client().Order(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), o)
		},
	}
}

func newSetStatusCmd(opts *options) *cobra.Command {
	var action string
	cmd := &cobra.Command{
		Use:   "set-status ORDER_ID [STATUS]",
		Short: "Change an order's status as admin, or as the restaurant with --action",
		Long: `Change an order's status.

Without --action the admin endpoint is used and STATUS is required.
With --action accept|reject|update the restaurant endpoint is used;
STATUS is only needed for update.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := ""
			if len(args) == 2 {
				status = args[1]
			}
			if action == "" && status == "" {
				return errors.New("STATUS is required without --action")
			}

			ctx, cancel := withTimeout(cmd, opts)
			defer cancel()
			c := opts.client()

			var err error
			var v any
			if action != "" {
				v, err = c.RestaurantUpdateStatus(ctx, args[0], action, status)
			} else {
				v, err = c.AdminUpdateStatus(ctx, args[0], status)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), v)
		},
	}
	cmd.Flags().StringVar(&action, "action", "", "restaurant action: accept, reject or update")
	return cmd
}

func newHistoryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "history ORDER_ID",
		Short: "Show the status change history of an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd, opts)
			defer cancel()
			h, err := opts.historyClient().OrderHistory(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), h)
		},
	}
}

func withTimeout(cmd *cobra.Command, opts *options) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, opts.timeout)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
