package repository

import (
	"context"
	"time"

	"github.com/benx421/rapidpay/internal/db"
	"github.com/benx421/rapidpay/internal/models"
	"github.com/google/uuid"
)

// CardChangeRepository is the append-only audit trail of card field updates
type CardChangeRepository interface {
	Create(ctx context.Context, change *models.CardFieldChange) error
	ListByCard(ctx context.Context, cardID uuid.UUID) ([]models.CardFieldChange, error)
}

type cardChangeRepository struct {
	db db.Querier
}

// NewCardChangeRepository creates a new CardChangeRepository
func NewCardChangeRepository(q db.Querier) CardChangeRepository {
	return &cardChangeRepository{db: q}
}

// Create appends a single field change
func (r *cardChangeRepository) Create(ctx context.Context, change *models.CardFieldChange) error {
	if change.ID == uuid.Nil {
		change.ID = uuid.New()
	}
	if change.ChangedAt.IsZero() {
		change.ChangedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO card_update_logs (id, card_id, updated_field, old_value, new_value, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		change.ID,
		change.CardID,
		string(change.Field),
		change.OldValue,
		change.NewValue,
		change.ChangedAt,
	)
	if err != nil {
		return wrapError("failed to create card change", err)
	}
	return nil
}

// ListByCard returns the changes recorded for a card in the order they were made
func (r *cardChangeRepository) ListByCard(ctx context.Context, cardID uuid.UUID) ([]models.CardFieldChange, error) {
	query := `
		SELECT id, card_id, updated_field, old_value, new_value, changed_at
		FROM card_update_logs
		WHERE card_id = $1
		ORDER BY changed_at ASC, updated_field ASC
	`

	rows, err := r.db.QueryContext(ctx, query, cardID)
	if err != nil {
		return nil, wrapError("failed to list card changes", err)
	}
	defer rows.Close()

	var changes []models.CardFieldChange
	for rows.Next() {
		var c models.CardFieldChange
		var field string
		if err := rows.Scan(&c.ID, &c.CardID, &field, &c.OldValue, &c.NewValue, &c.ChangedAt); err != nil {
			return nil, wrapError("failed to scan card change", err)
		}
		c.Field = models.CardField(field)
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("failed to iterate card changes", err)
	}
	return changes, nil
}
