package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrorCode is the machine-readable error identifier returned in error bodies.
type ErrorCode string

const (
	ErrorCodeValidation        ErrorCode = "validation_error"
	ErrorCodeCardNotFound      ErrorCode = "card_not_found"
	ErrorCodeCardNotAuthorized ErrorCode = "card_not_authorized"
	ErrorCodeConflict          ErrorCode = "conflict"
	ErrorCodeUnauthorized      ErrorCode = "unauthorized"
	ErrorCodeInternalError     ErrorCode = "internal_error"
)

// HealthStatus reports database reachability.
type HealthStatus string

const (
	Healthy   HealthStatus = "healthy"
	Unhealthy HealthStatus = "unhealthy"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   ErrorCode `json:"error"`
	Message string    `json:"message"`
}

type HealthResponse struct {
	Status HealthStatus `json:"status"`
}

// CreateCardRequest is the body of POST /api/v1/cards.
type CreateCardRequest struct {
	CreditLimit *decimal.Decimal `json:"credit_limit,omitempty"`
}

// UpdateCardRequest is the body of PUT /api/v1/cards/{cardNumber}. Absent
// fields are left unchanged.
type UpdateCardRequest struct {
	Balance     *decimal.Decimal `json:"balance,omitempty"`
	CreditLimit *decimal.Decimal `json:"credit_limit,omitempty"`
	IsActive    *bool            `json:"is_active,omitempty"`
}

// PayRequest is the body of POST /api/v1/cards/{cardNumber}/pay.
type PayRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Monetary amounts in responses are fixed two-place strings.

type CardResponse struct {
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CreditLimit *string   `json:"credit_limit,omitempty"`
	Balance     string    `json:"balance"`
	ID          uuid.UUID `json:"id"`
	IsActive    bool      `json:"is_active"`
}

// IssuedCardResponse is the only response that carries the plaintext number.
type IssuedCardResponse struct {
	CardNumber string `json:"card_number"`
	CardResponse
}

type BalanceResponse struct {
	CreditLimit *string `json:"credit_limit,omitempty"`
	Balance     string  `json:"balance"`
}

type AuthorizationResponse struct {
	Authorized bool `json:"authorized"`
}

type TransactionResponse struct {
	OccurredAt time.Time `json:"occurred_at"`
	Amount     string    `json:"amount"`
	Fee        string    `json:"fee"`
	ID         uuid.UUID `json:"id"`
	CardID     uuid.UUID `json:"card_id"`
}

type CardChangeResponse struct {
	ChangedAt time.Time `json:"changed_at"`
	Field     string    `json:"field"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	ID        uuid.UUID `json:"id"`
}

type AuthorizationAttemptResponse struct {
	AttemptedAt time.Time `json:"attempted_at"`
	ID          uuid.UUID `json:"id"`
	Authorized  bool      `json:"authorized"`
}

// CardHistoryResponse lists payments oldest first, field changes in the order
// they were made and authorization attempts newest first.
type CardHistoryResponse struct {
	Transactions   []TransactionResponse          `json:"transactions"`
	Changes        []CardChangeResponse           `json:"changes"`
	Authorizations []AuthorizationAttemptResponse `json:"authorizations"`
}

type FeeResponse struct {
	Fee string `json:"fee"`
}
