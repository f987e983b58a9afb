package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benx421/rapidpay/internal/models"
	"github.com/redis/go-redis/v9"
)

const defaultIdempotencyPrefix = "rapidpay:idempotency"

type redisIdempotencyRepository struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisIdempotencyRepository creates an IdempotencyRepository whose completed
// entries expire after ttl. Pending reservations expire after ReservationLease.
func NewRedisIdempotencyRepository(client redis.UniversalClient, prefix string, ttl time.Duration) IdempotencyRepository {
	trimmed := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if trimmed == "" {
		trimmed = defaultIdempotencyPrefix
	}
	return &redisIdempotencyRepository{client: client, prefix: trimmed, ttl: ttl}
}

func (r *redisIdempotencyRepository) key(key, requestPath string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, requestPath, key)
}

func (r *redisIdempotencyRepository) Reserve(ctx context.Context, key, requestPath string) (*models.IdempotencyKey, error) {
	pending := &models.IdempotencyKey{Key: key, RequestPath: requestPath, CreatedAt: time.Now().UTC()}
	payload, err := json.Marshal(pending)
	if err != nil {
		return nil, fmt.Errorf("failed to encode idempotency key: %w", err)
	}

	reserved, err := r.client.SetNX(ctx, r.key(key, requestPath), payload, ReservationLease).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	if reserved {
		return nil, nil
	}

	raw, err := r.client.Get(ctx, r.key(key, requestPath)).Bytes()
	if errors.Is(err, redis.Nil) {
		return pending, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get idempotency key: %w", err)
	}

	var existing models.IdempotencyKey
	if err := json.Unmarshal(raw, &existing); err != nil {
		return nil, fmt.Errorf("failed to decode idempotency key: %w", err)
	}
	return &existing, nil
}

func (r *redisIdempotencyRepository) Complete(ctx context.Context, idemKey *models.IdempotencyKey) error {
	if idemKey.CreatedAt.IsZero() {
		idemKey.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(idemKey)
	if err != nil {
		return fmt.Errorf("failed to encode idempotency key: %w", err)
	}

	// XX: a reservation that already expired is not resurrected.
	ok, err := r.client.SetXX(ctx, r.key(idemKey.Key, idemKey.RequestPath), payload, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to complete idempotency key: %w", err)
	}
	if !ok {
		return fmt.Errorf("failed to complete idempotency key: %w", models.ErrNotFound)
	}
	return nil
}

func (r *redisIdempotencyRepository) Release(ctx context.Context, key, requestPath string) error {
	if err := r.client.Del(ctx, r.key(key, requestPath)).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

// DeleteOlderThan is a no-op; Redis expires entries through their TTL.
func (r *redisIdempotencyRepository) DeleteOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}
