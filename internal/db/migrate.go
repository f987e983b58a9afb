package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed migrations/*.up.sql
var migrationFS embed.FS

// Migrate applies every embedded up migration in lexical order. Migrations are
// written with IF NOT EXISTS so re-running them is harmless.
func (db *DB) Migrate(ctx context.Context) error {
	names, err := fs.Glob(migrationFS, "migrations/*.up.sql")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := migrationFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		db.logger.Info("applying migration", "name", strings.TrimPrefix(name, "migrations/"))
		if _, err := db.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
	}
	return nil
}

// SchemaReady reports whether the database is reachable and the ledger tables exist.
func (db *DB) SchemaReady(ctx context.Context) (bool, error) {
	if err := db.PingContext(ctx); err != nil {
		return false, fmt.Errorf("failed to ping database: %w", err)
	}

	var ready bool
	err := db.QueryRowContext(ctx, `SELECT to_regclass('public.fee_history') IS NOT NULL AND to_regclass('public.cards') IS NOT NULL`).Scan(&ready)
	if err != nil {
		return false, fmt.Errorf("failed to inspect schema: %w", err)
	}
	return ready, nil
}
