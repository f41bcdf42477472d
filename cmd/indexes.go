package main

import (
	"github.com/spf13/cobra"

	"holyremedies.mx/storefront/pkg/global"
)

func indexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create the MongoDB indexes and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, cancel := global.GetDefaultTimer()
			defer cancel()

			store, err := connectStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			if !store.Configured() {
				return global.ErrStoreUnavailable
			}
			defer store.Close(ctx)

			return store.EnsureIndexes(ctx)
		},
	}
}
