package repository

import (
	"context"
	"time"

	"github.com/benx421/rapidpay/internal/db"
	"github.com/benx421/rapidpay/internal/models"
	"github.com/google/uuid"
)

// TransactionRepository defines the interface for payment transaction data access
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	FindLatestByCard(ctx context.Context, cardID uuid.UUID) (*models.Transaction, error)
	ListByCard(ctx context.Context, cardID uuid.UUID) ([]models.Transaction, error)
}

type transactionRepository struct {
	db db.Querier
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(q db.Querier) TransactionRepository {
	return &transactionRepository{db: q}
}

const transactionColumns = `id, card_id, amount, fee, occurred_at`

func scanTransaction(row interface{ Scan(dest ...any) error }) (*models.Transaction, error) {
	var txn models.Transaction
	if err := row.Scan(&txn.ID, &txn.CardID, &txn.Amount, &txn.Fee, &txn.OccurredAt); err != nil {
		return nil, err
	}
	return &txn, nil
}

// Create inserts a transaction; the row is never updated afterwards
func (r *transactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	if txn.OccurredAt.IsZero() {
		txn.OccurredAt = time.Now().UTC()
	}

	query := `
		INSERT INTO transactions (id, card_id, amount, fee, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query, txn.ID, txn.CardID, txn.Amount, txn.Fee, txn.OccurredAt)
	if err != nil {
		return wrapError("failed to create transaction", err)
	}
	return nil
}

// FindLatestByCard returns the most recent transaction for a card, or
// ErrNotFound if the card has never been charged.
func (r *transactionRepository) FindLatestByCard(ctx context.Context, cardID uuid.UUID) (*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE card_id = $1
		ORDER BY occurred_at DESC
		LIMIT 1
	`

	txn, err := scanTransaction(r.db.QueryRowContext(ctx, query, cardID))
	if err != nil {
		return nil, wrapError("failed to find latest transaction", err)
	}
	return txn, nil
}

// ListByCard returns a card's transactions, oldest first
func (r *transactionRepository) ListByCard(ctx context.Context, cardID uuid.UUID) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE card_id = $1
		ORDER BY occurred_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, cardID)
	if err != nil {
		return nil, wrapError("failed to list transactions", err)
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, wrapError("failed to scan transaction", err)
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("failed to iterate transactions", err)
	}
	return txns, nil
}
