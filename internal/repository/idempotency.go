package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/benx421/rapidpay/internal/db"
	"github.com/benx421/rapidpay/internal/models"
)

// ReservationLease bounds how long a pending reservation blocks its key. A
// reservation left behind by a crashed request can be taken over afterwards.
const ReservationLease = time.Minute

// IdempotencyRepository reserves Idempotency-Key values per request path and
// keeps the response of the request that held the reservation.
type IdempotencyRepository interface {
	// Reserve claims key for requestPath. It returns nil when the caller now
	// holds the reservation, or the existing entry (pending or completed)
	// when another request got there first.
	Reserve(ctx context.Context, key, requestPath string) (*models.IdempotencyKey, error)
	// Complete stores the final response for a reservation.
	Complete(ctx context.Context, idemKey *models.IdempotencyKey) error
	// Release drops a pending reservation so the key can be retried.
	Release(ctx context.Context, key, requestPath string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type idempotencyRepository struct {
	db  db.Querier
	now func() time.Time
}

// NewIdempotencyRepository creates a Postgres-backed IdempotencyRepository
func NewIdempotencyRepository(q db.Querier) IdempotencyRepository {
	return &idempotencyRepository{db: q, now: func() time.Time { return time.Now().UTC() }}
}

func (r *idempotencyRepository) Reserve(ctx context.Context, key, requestPath string) (*models.IdempotencyKey, error) {
	now := r.now()

	// A stale pending row is re-stamped in place; completed rows are never touched.
	query := `
		INSERT INTO idempotency_keys (key, request_path, response_status, response_body, created_at)
		VALUES ($1, $2, 0, '', $3)
		ON CONFLICT (key, request_path) DO UPDATE
		SET created_at = EXCLUDED.created_at
		WHERE idempotency_keys.response_status = 0
		  AND idempotency_keys.created_at < $4
		RETURNING key
	`

	var reserved string
	err := r.db.QueryRowContext(ctx, query, key, requestPath, now, now.Add(-ReservationLease)).Scan(&reserved)
	if err == nil {
		return nil, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, wrapError("failed to reserve idempotency key", err)
	}

	existing, err := r.get(ctx, key, requestPath)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		// Released between the insert and the read; the holder is finishing up.
		return &models.IdempotencyKey{Key: key, RequestPath: requestPath, CreatedAt: now}, nil
	}
	return existing, nil
}

func (r *idempotencyRepository) get(ctx context.Context, key, requestPath string) (*models.IdempotencyKey, error) {
	query := `
		SELECT key, request_path, response_status, response_body, created_at
		FROM idempotency_keys
		WHERE key = $1 AND request_path = $2
	`

	var idemKey models.IdempotencyKey
	err := r.db.QueryRowContext(ctx, query, key, requestPath).Scan(
		&idemKey.Key,
		&idemKey.RequestPath,
		&idemKey.ResponseStatus,
		&idemKey.ResponseBody,
		&idemKey.CreatedAt,
	)
	if err != nil {
		wrapped := wrapError("failed to get idempotency key", err)
		if errors.Is(wrapped, models.ErrNotFound) {
			return nil, nil
		}
		return nil, wrapped
	}
	return &idemKey, nil
}

func (r *idempotencyRepository) Complete(ctx context.Context, idemKey *models.IdempotencyKey) error {
	query := `
		UPDATE idempotency_keys
		SET response_status = $3, response_body = $4
		WHERE key = $1 AND request_path = $2 AND response_status = 0
	`

	result, err := r.db.ExecContext(ctx, query,
		idemKey.Key,
		idemKey.RequestPath,
		idemKey.ResponseStatus,
		idemKey.ResponseBody,
	)
	if err != nil {
		return wrapError("failed to complete idempotency key", err)
	}

	updated, err := result.RowsAffected()
	if err != nil {
		return wrapError("failed to count completed idempotency keys", err)
	}
	if updated == 0 {
		return wrapError("failed to complete idempotency key", sql.ErrNoRows)
	}
	return nil
}

func (r *idempotencyRepository) Release(ctx context.Context, key, requestPath string) error {
	query := `
		DELETE FROM idempotency_keys
		WHERE key = $1 AND request_path = $2 AND response_status = 0
	`
	if _, err := r.db.ExecContext(ctx, query, key, requestPath); err != nil {
		return wrapError("failed to release idempotency key", err)
	}
	return nil
}

// DeleteOlderThan purges cached responses created before cutoff
func (r *idempotencyRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, wrapError("failed to delete idempotency keys", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, wrapError("failed to count deleted idempotency keys", err)
	}
	return deleted, nil
}
