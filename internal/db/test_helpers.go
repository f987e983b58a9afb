package db

import (
	"database/sql"
	"log/slog"

	"github.com/benx421/rapidpay/internal/config"
)

// NewTestDB creates a DB instance for testing with a no-op logger
// This is only for use in tests where logging output is not needed
func NewTestDB(sqlDB *sql.DB) *DB {
	return NewFromSQL(sqlDB, config.DiscardLogger())
}

// NewFromSQL wraps an already-open pool.
func NewFromSQL(sqlDB *sql.DB, logger *slog.Logger) *DB {
	return &DB{
		DB:     sqlDB,
		logger: logger,
	}
}
