package main

import (
	"fmt"
	"time"

	"github.com/benx421/rapidpay/internal/config"
	"github.com/benx421/rapidpay/internal/middleware"
	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token [subject]",
		Short: "Sign a bearer token for the API with JWT_SIGNING_KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if cfg.Auth.JWTSigningKey == "" {
				return fmt.Errorf("JWT_SIGNING_KEY is not set")
			}

			token, err := middleware.IssueToken([]byte(cfg.Auth.JWTSigningKey), args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
