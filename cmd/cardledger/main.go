// Command cardledger runs the RapidPay card ledger API and its maintenance tasks.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/benx421/rapidpay/internal/cardcodec"
	"github.com/benx421/rapidpay/internal/config"
	"github.com/benx421/rapidpay/internal/db"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "cardledger",
		Short:         "RapidPay card ledger and authorization engine",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(feeCmd())
	rootCmd.AddCommand(tokenCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds what every subcommand needs: configuration, a logger and an open
// database pool.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *db.DB
}

func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	database, err := db.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &app{cfg: cfg, logger: logger, db: database}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", "error", err)
	}
}

func (a *app) codec() (*cardcodec.Codec, error) {
	codec, err := cardcodec.New([]byte(a.cfg.Ledger.CardNumberSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to build card number codec: %w", err)
	}
	return codec, nil
}
