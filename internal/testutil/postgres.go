//go:build integration

// Package testutil starts throwaway infrastructure for integration tests.
package testutil

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/benx421/rapidpay/internal/db"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	postgresOnce sync.Once
	postgresDSN  string
	postgresErr  error
)

// startPostgres boots one container per test binary; Ryuk removes it afterwards.
func startPostgres() (string, error) {
	postgresOnce.Do(func() {
		ctx := context.Background()
		ctr, err := postgres.Run(ctx, "postgres:16-alpine",
			postgres.WithDatabase("rapidpay"),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			postgres.BasicWaitStrategies(),
		)
		if err != nil {
			postgresErr = err
			return
		}
		postgresDSN, postgresErr = ctr.ConnectionString(ctx, "sslmode=disable")
	})
	return postgresDSN, postgresErr
}

// NewPostgres returns a migrated, empty database. Tables are truncated on every
// call so tests in one package must not run in parallel.
func NewPostgres(t *testing.T) *db.DB {
	t.Helper()

	dsn, err := startPostgres()
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	database := db.NewTestDB(sqlDB)
	if err := database.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	Truncate(t, database)
	t.Cleanup(func() { _ = database.Close() })

	return database
}

// Truncate empties every ledger table.
func Truncate(t *testing.T, database *db.DB) {
	t.Helper()

	_, err := database.ExecContext(context.Background(), `
		TRUNCATE TABLE card_update_logs, authorization_logs, transactions,
		               fee_history, idempotency_keys, cards CASCADE
	`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}
