// Package events defines the domain events emitted after ledger mutations commit.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	TypePaymentCompleted = "payment.completed"
	TypeCardUpdated      = "card.updated"
)

// Event is a typed payload keyed by the card it concerns.
type Event struct {
	Payload any
	Type    string
	Key     string
}

// PaymentCompleted is emitted once a payment transaction has committed.
type PaymentCompleted struct {
	OccurredAt    time.Time       `json:"occurred_at"`
	Amount        decimal.Decimal `json:"amount"`
	Fee           decimal.Decimal `json:"fee"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	CardID        uuid.UUID       `json:"card_id"`
}

// CardUpdated is emitted once a card update with at least one change has committed.
type CardUpdated struct {
	Fields []string  `json:"fields"`
	CardID uuid.UUID `json:"card_id"`
}

// Publisher delivers events to downstream consumers. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NewPaymentCompleted builds the event for a committed payment.
func NewPaymentCompleted(p PaymentCompleted) Event {
	return Event{Type: TypePaymentCompleted, Key: p.CardID.String(), Payload: p}
}

// NewCardUpdated builds the event for a committed card update.
func NewCardUpdated(u CardUpdated) Event {
	return Event{Type: TypeCardUpdated, Key: u.CardID.String(), Payload: u}
}

// NopPublisher discards every event. Used when no broker is configured.
type NopPublisher struct{}

var _ Publisher = NopPublisher{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
