package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"holyremedies.mx/storefront/pkg/global"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

const appName = "storefront"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Holy Remedies storefront backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		serveCmd(),
		fulfillCmd(),
		indexesCmd(),
		adminCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)
	return cmd
}

// bootstrap loads .env and the config and installs the global logger.
func bootstrap() (global.Config, *zap.Logger, error) {
	envErr := godotenv.Load()

	cfg := global.LoadConfig()
	logger, err := global.InitLogger(cfg)
	if err != nil {
		return cfg, nil, fmt.Errorf("init logger: %w", err)
	}
	if envErr != nil {
		logger.Debug("no .env file loaded", zap.Error(envErr))
	}
	return cfg, logger, nil
}
