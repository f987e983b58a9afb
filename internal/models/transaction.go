package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction represents one completed card payment
type Transaction struct {
	OccurredAt time.Time       `db:"occurred_at"`
	Amount     decimal.Decimal `db:"amount"`
	Fee        decimal.Decimal `db:"fee"`
	ID         uuid.UUID       `db:"id"`
	CardID     uuid.UUID       `db:"card_id"`
}

// Total returns the amount debited from the card, principal plus fee
func (t *Transaction) Total() decimal.Decimal {
	return t.Amount.Add(t.Fee)
}

// AuthorizationRecord is written for every authorization attempt.
// CardID is nil when the card number did not resolve to a card.
type AuthorizationRecord struct {
	AttemptedAt time.Time  `db:"attempted_at"`
	CardID      *uuid.UUID `db:"card_id"`
	ID          uuid.UUID  `db:"id"`
	Granted     bool       `db:"is_authorized"`
}

// FeeEntry is one point in the fee timeline
type FeeEntry struct {
	RecordedAt time.Time       `db:"recorded_at"`
	Fee        decimal.Decimal `db:"fee"`
	ID         uuid.UUID       `db:"id"`
}

// IdempotencyKey tracks processed requests to prevent duplicate payments.
// A zero ResponseStatus marks a reservation whose request is still running.
type IdempotencyKey struct {
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	Key            string    `db:"key" json:"key"`
	RequestPath    string    `db:"request_path" json:"request_path"`
	ResponseBody   string    `db:"response_body" json:"response_body"`
	ResponseStatus int       `db:"response_status" json:"response_status"`
}

// Pending reports whether the key is reserved but has no stored response yet.
func (k *IdempotencyKey) Pending() bool {
	return k.ResponseStatus == 0
}
