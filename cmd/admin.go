package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"holyremedies.mx/storefront/internal/auth"
	"holyremedies.mx/storefront/pkg/global"
)

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage CMS administrators",
	}

	var email, password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an administrator with a bcrypt-hashed password",
		RunE: func(cmd *cobra.Command, args []string) error {
			email = strings.ToLower(strings.TrimSpace(email))
			if email == "" || len(password) < 8 {
				return errors.New("--email and a --password of at least 8 characters are required")
			}

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

			hash, err := auth.HashPassword(password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			admin, err := store.CreateAdmin(ctx, email, hash)
			if err != nil {
				return err
			}
			logger.Info("admin created", zap.String("id", admin.ID.Hex()), zap.String("email", admin.Email))
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "Administrator email")
	create.Flags().StringVar(&password, "password", "", "Administrator password")

	cmd.AddCommand(create)
	return cmd
}
