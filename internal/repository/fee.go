package repository

import (
	"context"
	"time"

	"github.com/benx421/rapidpay/internal/db"
	"github.com/benx421/rapidpay/internal/models"
	"github.com/google/uuid"
)

// FeeRepository stores the append-only fee timeline
type FeeRepository interface {
	Latest(ctx context.Context) (*models.FeeEntry, error)
	Append(ctx context.Context, entry *models.FeeEntry) error
}

type feeRepository struct {
	db db.Querier
}

// NewFeeRepository creates a new FeeRepository
func NewFeeRepository(q db.Querier) FeeRepository {
	return &feeRepository{db: q}
}

// Latest returns the most recently recorded fee entry, or ErrNotFound when the
// timeline is empty.
func (r *feeRepository) Latest(ctx context.Context) (*models.FeeEntry, error) {
	query := `
		SELECT id, fee, recorded_at
		FROM fee_history
		ORDER BY recorded_at DESC, id DESC
		LIMIT 1
	`

	var entry models.FeeEntry
	err := r.db.QueryRowContext(ctx, query).Scan(&entry.ID, &entry.Fee, &entry.RecordedAt)
	if err != nil {
		return nil, wrapError("failed to read latest fee", err)
	}
	return &entry, nil
}

// Append adds an entry to the fee timeline
func (r *feeRepository) Append(ctx context.Context, entry *models.FeeEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}

	query := `INSERT INTO fee_history (id, fee, recorded_at) VALUES ($1, $2, $3)`

	if _, err := r.db.ExecContext(ctx, query, entry.ID, entry.Fee, entry.RecordedAt); err != nil {
		return wrapError("failed to append fee entry", err)
	}
	return nil
}
