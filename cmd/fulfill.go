package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"holyremedies.mx/storefront/internal/fulfillment"
	"holyremedies.mx/storefront/internal/metrics"
	"holyremedies.mx/storefront/pkg/global"
)

func fulfillCmd() *cobra.Command {
	var scanLimit int64

	cmd := &cobra.Command{
		Use:   "fulfill",
		Short: "Run the payment worker that completes pending checkout sessions",
		Long: `fulfill follows the checkout_sessions collection and, for every pending
session, creates a Midtrans Snap transaction and writes its redirect url back
to the session, or an error when the gateway rejects it.

The change stream requires MongoDB running as a replica set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if cfg.MidtransServerKey == "" {
				return errors.New("MIDTRANS_SERVER_KEY is required")
			}

			ctx, stop := signal.NotifyContext(contextOrBackground(cmd.Context()), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store, err := connectStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			if !store.Configured() {
				return global.ErrStoreUnavailable
			}
			defer store.Close(context.Background())

			worker := fulfillment.NewWorker(
				fulfillmentSessions{store: store},
				fulfillment.NewMidtransGateway(cfg.MidtransServerKey, cfg.MidtransIsProduction),
				fulfillment.WorkerConfig{ScanLimit: scanLimit, Metrics: metrics.New(nil)},
			)

			logger.Info("fulfillment worker started", zap.Bool("production", cfg.MidtransIsProduction))
			return worker.Run(ctx)
		},
	}
	cmd.Flags().Int64Var(&scanLimit, "scan-limit", 100, "Pending sessions fulfilled on startup")
	return cmd
}
