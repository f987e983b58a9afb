package service

import (
	"context"

	"github.com/benx421/rapidpay/internal/models"
	"github.com/shopspring/decimal"
)

// HealthChecker validates system health.
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// CardManager handles card issuance, balance lookups and updates
type CardManager interface {
	CreateCard(ctx context.Context, creditLimit *decimal.Decimal) (*models.IssuedCard, error)
	GetBalance(ctx context.Context, cardNumber string) (*models.Card, error)
	UpdateCard(ctx context.Context, cardNumber string, update models.CardUpdate) (*models.Card, error)
	GetHistory(ctx context.Context, cardNumber string) (*models.CardHistory, error)
}

// Authorizer decides whether a card may be used
type Authorizer interface {
	Authorize(ctx context.Context, cardNumber string) bool
}

// Payer handles card payments
type Payer interface {
	Pay(ctx context.Context, cardNumber string, amount decimal.Decimal) (*models.Transaction, error)
}

// FeeManager reads and advances the fee timeline
type FeeManager interface {
	CurrentFee(ctx context.Context) (decimal.Decimal, error)
	EvolveFee(ctx context.Context) (decimal.Decimal, error)
	SeedFee(ctx context.Context) (decimal.Decimal, error)
	StepFee(ctx context.Context) (decimal.Decimal, error)
}

// Ensure concrete types implement interfaces
var (
	_ CardManager = (*CardService)(nil)
	_ Authorizer  = (*AuthorizationService)(nil)
	_ Payer       = (*PaymentService)(nil)
	_ FeeManager  = (*FeeService)(nil)
)
