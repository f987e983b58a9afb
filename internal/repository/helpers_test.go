//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/benx421/rapidpay/internal/db"
	"github.com/benx421/rapidpay/internal/models"
	"github.com/benx421/rapidpay/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()
	return testutil.NewPostgres(t)
}

func seedCard(t *testing.T, database *db.DB, storedNumber, balance string, creditLimit *string) *models.Card {
	t.Helper()

	card := &models.Card{
		StoredNumber: storedNumber,
		Balance:      decimal.RequireFromString(balance),
		IsActive:     true,
	}
	if creditLimit != nil {
		card.CreditLimit = decimal.NewNullDecimal(decimal.RequireFromString(*creditLimit))
	}

	require.NoError(t, NewCardRepository(database).Create(context.Background(), card), "failed to seed card")
	return card
}

// countUnresolved counts authorization attempts that named no known card.
func countUnresolved(t *testing.T, database *db.DB) int64 {
	t.Helper()
	var count int64
	err := database.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM authorization_logs WHERE card_id IS NULL`).Scan(&count)
	require.NoError(t, err)
	return count
}

func strPtr(s string) *string {
	return &s
}
