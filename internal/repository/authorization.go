package repository

import (
	"context"
	"time"

	"github.com/benx421/rapidpay/internal/db"
	"github.com/benx421/rapidpay/internal/models"
	"github.com/google/uuid"
)

// AuthorizationRepository stores the write-only authorization attempt log
type AuthorizationRepository interface {
	Create(ctx context.Context, record *models.AuthorizationRecord) error
	ListByCard(ctx context.Context, cardID uuid.UUID) ([]models.AuthorizationRecord, error)
}

type authorizationRepository struct {
	db db.Querier
}

// NewAuthorizationRepository creates a new AuthorizationRepository
func NewAuthorizationRepository(q db.Querier) AuthorizationRepository {
	return &authorizationRepository{db: q}
}

// Create appends an authorization attempt. A nil CardID is stored as NULL.
func (r *authorizationRepository) Create(ctx context.Context, record *models.AuthorizationRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.AttemptedAt.IsZero() {
		record.AttemptedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO authorization_logs (id, card_id, is_authorized, attempted_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query, record.ID, record.CardID, record.Granted, record.AttemptedAt)
	if err != nil {
		return wrapError("failed to create authorization record", err)
	}
	return nil
}

// ListByCard returns the authorization attempts recorded for a card, newest first
func (r *authorizationRepository) ListByCard(ctx context.Context, cardID uuid.UUID) ([]models.AuthorizationRecord, error) {
	query := `
		SELECT id, card_id, is_authorized, attempted_at
		FROM authorization_logs
		WHERE card_id = $1
		ORDER BY attempted_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, cardID)
	if err != nil {
		return nil, wrapError("failed to list authorization records", err)
	}
	defer rows.Close()

	var records []models.AuthorizationRecord
	for rows.Next() {
		var rec models.AuthorizationRecord
		if err := rows.Scan(&rec.ID, &rec.CardID, &rec.Granted, &rec.AttemptedAt); err != nil {
			return nil, wrapError("failed to scan authorization record", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("failed to iterate authorization records", err)
	}
	return records, nil
}
