// Package repository provides data access layer implementations for the card ledger.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benx421/rapidpay/internal/db"
	"github.com/benx421/rapidpay/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CardRepository defines the interface for card data access
type CardRepository interface {
	FindByNumber(ctx context.Context, storedNumber string) (*models.Card, error)
	FindByNumberForUpdate(ctx context.Context, storedNumber string) (*models.Card, error)
	Create(ctx context.Context, card *models.Card) error
	Debit(ctx context.Context, cardID uuid.UUID, amount decimal.Decimal) (*models.Card, error)
	Update(ctx context.Context, card *models.Card) error
}

// cardRepository implements CardRepository
type cardRepository struct {
	db db.Querier
}

// NewCardRepository creates a new CardRepository
func NewCardRepository(q db.Querier) CardRepository {
	return &cardRepository{db: q}
}

const cardColumns = `id, card_number, balance, credit_limit, is_active, created_at, updated_at`

func scanCard(row interface{ Scan(dest ...any) error }) (*models.Card, error) {
	var card models.Card
	err := row.Scan(
		&card.ID,
		&card.StoredNumber,
		&card.Balance,
		&card.CreditLimit,
		&card.IsActive,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// FindByNumber retrieves a card by its stored (encoded) number
func (r *cardRepository) FindByNumber(ctx context.Context, storedNumber string) (*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE card_number = $1`

	card, err := scanCard(r.db.QueryRowContext(ctx, query, storedNumber))
	if err != nil {
		return nil, wrapError("failed to find card by number", err)
	}
	return card, nil
}

// FindByNumberForUpdate retrieves a card and locks its row until the enclosing
// transaction ends. Concurrent payments against the same card queue here.
func (r *cardRepository) FindByNumberForUpdate(ctx context.Context, storedNumber string) (*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE card_number = $1 FOR UPDATE`

	card, err := scanCard(r.db.QueryRowContext(ctx, query, storedNumber))
	if err != nil {
		return nil, wrapError("failed to lock card", err)
	}
	return card, nil
}

// Create inserts a new card, filling in the generated ID and timestamps
func (r *cardRepository) Create(ctx context.Context, card *models.Card) error {
	if card.ID == uuid.Nil {
		card.ID = uuid.New()
	}
	now := time.Now().UTC()
	if card.CreatedAt.IsZero() {
		card.CreatedAt = now
	}
	card.UpdatedAt = card.CreatedAt

	query := `
		INSERT INTO cards (id, card_number, balance, credit_limit, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		card.ID,
		card.StoredNumber,
		card.Balance,
		card.CreditLimit,
		card.IsActive,
		card.CreatedAt,
		card.UpdatedAt,
	)
	if err != nil {
		return wrapError("failed to create card", err)
	}
	return nil
}

// Debit subtracts amount from the card balance in a single conditional update.
// The row only changes if the card is active and has enough spending power at
// the moment of the write; otherwise ErrInsufficientFundsOrInactive is returned.
func (r *cardRepository) Debit(ctx context.Context, cardID uuid.UUID, amount decimal.Decimal) (*models.Card, error) {
	query := `
		UPDATE cards
		SET balance = balance - $2,
		    updated_at = NOW()
		WHERE id = $1
		  AND is_active
		  AND balance + COALESCE(credit_limit, 0) >= $2
		RETURNING ` + cardColumns

	card, err := scanCard(r.db.QueryRowContext(ctx, query, cardID, amount))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to debit card %s: %w", cardID, models.ErrInsufficientFundsOrInactive)
	}
	if err != nil {
		return nil, wrapError("failed to debit card", err)
	}
	return card, nil
}

// Update persists the mutable attributes of card
func (r *cardRepository) Update(ctx context.Context, card *models.Card) error {
	query := `
		UPDATE cards
		SET balance = $2,
		    credit_limit = $3,
		    is_active = $4,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query, card.ID, card.Balance, card.CreditLimit, card.IsActive).Scan(&card.UpdatedAt)
	if err != nil {
		return wrapError("failed to update card", err)
	}
	return nil
}
