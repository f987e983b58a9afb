package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/benx421/rapidpay/internal/cardcodec"
	"github.com/benx421/rapidpay/internal/db"
	"github.com/benx421/rapidpay/internal/metrics"
	"github.com/benx421/rapidpay/internal/models"
	"github.com/benx421/rapidpay/internal/repository"
)

// AuthorizationService decides whether a card may be used right now
type AuthorizationService struct {
	db             *db.DB
	codec          *cardcodec.Codec
	logger         *slog.Logger
	metrics        *metrics.Metrics
	now            func() time.Time
	velocityWindow time.Duration
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(
	database *db.DB,
	codec *cardcodec.Codec,
	logger *slog.Logger,
	m *metrics.Metrics,
	velocityWindow time.Duration,
) *AuthorizationService {
	return &AuthorizationService{
		db:             database,
		codec:          codec,
		logger:         logger,
		metrics:        m,
		now:            func() time.Time { return time.Now().UTC() },
		velocityWindow: velocityWindow,
	}
}

// Authorize reports whether the card is active and has not paid within the
// velocity window. Every call leaves one authorization record; store failures
// deny.
func (s *AuthorizationService) Authorize(ctx context.Context, cardNumber string) bool {
	stored := s.codec.Encode(cardNumber)

	var granted bool
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		granted, err = s.performAuthorization(
			ctx,
			repository.NewCardRepository(tx),
			repository.NewTransactionRepository(tx),
			repository.NewAuthorizationRepository(tx),
			stored,
		)
		return err
	})
	if err != nil {
		s.logger.Error("authorization failed", "error", err)
		s.metrics.RecordAuthorization(false)
		return false
	}

	s.metrics.RecordAuthorization(granted)
	return granted
}

// performAuthorization contains the core authorization business logic
func (s *AuthorizationService) performAuthorization(
	ctx context.Context,
	cardRepo repository.CardRepository,
	transactionRepo repository.TransactionRepository,
	authRepo repository.AuthorizationRepository,
	storedNumber string,
) (bool, error) {
	now := s.now()
	record := &models.AuthorizationRecord{AttemptedAt: now}

	card, err := cardRepo.FindByNumber(ctx, storedNumber)
	switch {
	case errors.Is(err, models.ErrNotFound):
	case err != nil:
		return false, err
	default:
		record.CardID = &card.ID
		if card.IsActive {
			record.Granted, err = s.passesVelocityCheck(ctx, transactionRepo, card, now)
			if err != nil {
				return false, err
			}
		}
	}

	if err := authRepo.Create(ctx, record); err != nil {
		return false, err
	}

	if card != nil {
		s.logger.Debug("authorization decided", "card_id", card.ID, "granted", record.Granted)
	}
	return record.Granted, nil
}

func (s *AuthorizationService) passesVelocityCheck(
	ctx context.Context,
	transactionRepo repository.TransactionRepository,
	card *models.Card,
	now time.Time,
) (bool, error) {
	latest, err := transactionRepo.FindLatestByCard(ctx, card.ID)
	if errors.Is(err, models.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return !latest.OccurredAt.Add(s.velocityWindow).After(now), nil
}
