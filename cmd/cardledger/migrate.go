package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.db.Migrate(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			a.logger.Info("schema is up to date")
			return nil
		},
	}
}
