// Package handlers implements HTTP handlers for the card ledger API.
package handlers

import (
	"log/slog"

	"github.com/benx421/rapidpay/internal/service"
)

// Handler serves every card ledger endpoint
type Handler struct {
	cardService   service.CardManager
	authService   service.Authorizer
	payService    service.Payer
	feeService    service.FeeManager
	healthChecker service.HealthChecker
	logger        *slog.Logger
}

// NewHandler creates a new Handler with injected service dependencies.
func NewHandler(
	cardService service.CardManager,
	authService service.Authorizer,
	payService service.Payer,
	feeService service.FeeManager,
	healthChecker service.HealthChecker,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		cardService:   cardService,
		authService:   authService,
		payService:    payService,
		feeService:    feeService,
		healthChecker: healthChecker,
		logger:        logger,
	}
}
