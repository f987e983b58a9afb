package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/benx421/rapidpay/internal/cardcodec"
	"github.com/benx421/rapidpay/internal/db"
	"github.com/benx421/rapidpay/internal/events"
	"github.com/benx421/rapidpay/internal/metrics"
	"github.com/benx421/rapidpay/internal/models"
	"github.com/benx421/rapidpay/internal/repository"
	"github.com/shopspring/decimal"
)

// CardService issues cards and manages their balance, credit limit and status
type CardService struct {
	db             *db.DB
	codec          *cardcodec.Codec
	logger         *slog.Logger
	metrics        *metrics.Metrics
	publisher      events.Publisher
	now            func() time.Time
	generateNumber func() (string, error)
	randomBalance  func(upper decimal.Decimal) (decimal.Decimal, error)
	balanceMax     decimal.Decimal
	retryLimit     int
}

// NewCardService creates a new CardService
func NewCardService(
	database *db.DB,
	codec *cardcodec.Codec,
	logger *slog.Logger,
	m *metrics.Metrics,
	publisher events.Publisher,
	balanceMax decimal.Decimal,
	retryLimit int,
) *CardService {
	return &CardService{
		db:             database,
		codec:          codec,
		logger:         logger,
		metrics:        m,
		publisher:      publisher,
		now:            func() time.Time { return time.Now().UTC() },
		generateNumber: cardcodec.GenerateNumber,
		randomBalance:  randomBalance,
		balanceMax:     balanceMax,
		retryLimit:     retryLimit,
	}
}

// CreateCard issues an active card with a random opening balance. The
// plaintext number is returned only here.
func (s *CardService) CreateCard(ctx context.Context, creditLimit *decimal.Decimal) (*models.IssuedCard, error) {
	if creditLimit != nil {
		if err := ValidateCreditLimit(*creditLimit); err != nil {
			return nil, validationError(err.Error())
		}
	}

	var issued *models.IssuedCard
	// A number collision surfaces as a conflict; retrying draws a new number.
	err := retryOnConflict(ctx, s.retryLimit, func() error {
		var err error
		issued, err = s.performCreate(ctx, repository.NewCardRepository(s.db), creditLimit)
		return err
	})
	if err != nil {
		s.logger.Error("failed to issue card", "error", err)
		return nil, translateError("failed to create card", err)
	}

	s.metrics.IncrementCardsIssued()
	s.logger.Info("card issued", "card_id", issued.Card.ID)
	return issued, nil
}

func (s *CardService) performCreate(
	ctx context.Context,
	cardRepo repository.CardRepository,
	creditLimit *decimal.Decimal,
) (*models.IssuedCard, error) {
	number, err := s.generateNumber()
	if err != nil {
		return nil, err
	}

	balance, err := s.randomBalance(s.balanceMax)
	if err != nil {
		return nil, err
	}

	card := &models.Card{
		StoredNumber: s.codec.Encode(number),
		Balance:      balance,
		IsActive:     true,
		CreatedAt:    s.now(),
	}
	if creditLimit != nil {
		card.CreditLimit = decimal.NewNullDecimal(*creditLimit)
	}

	if err := cardRepo.Create(ctx, card); err != nil {
		return nil, err
	}

	return &models.IssuedCard{Card: card, Number: number}, nil
}

// GetBalance returns the card's ledger state
func (s *CardService) GetBalance(ctx context.Context, cardNumber string) (*models.Card, error) {
	return s.lookupCard(ctx, cardNumber)
}

// GetHistory returns the card with its payments, field changes and
// authorization attempts.
func (s *CardService) GetHistory(ctx context.Context, cardNumber string) (*models.CardHistory, error) {
	card, err := s.lookupCard(ctx, cardNumber)
	if err != nil {
		return nil, err
	}

	history, err := s.performHistory(
		ctx,
		card,
		repository.NewTransactionRepository(s.db),
		repository.NewCardChangeRepository(s.db),
		repository.NewAuthorizationRepository(s.db),
	)
	if err != nil {
		s.logger.Error("failed to load card history", "card_id", card.ID, "error", err)
		return nil, internalError("failed to load card history", err)
	}
	return history, nil
}

func (s *CardService) performHistory(
	ctx context.Context,
	card *models.Card,
	txnRepo repository.TransactionRepository,
	changeRepo repository.CardChangeRepository,
	authRepo repository.AuthorizationRepository,
) (*models.CardHistory, error) {
	txns, err := txnRepo.ListByCard(ctx, card.ID)
	if err != nil {
		return nil, err
	}
	changes, err := changeRepo.ListByCard(ctx, card.ID)
	if err != nil {
		return nil, err
	}
	attempts, err := authRepo.ListByCard(ctx, card.ID)
	if err != nil {
		return nil, err
	}

	return &models.CardHistory{
		Card:           card,
		Transactions:   txns,
		Changes:        changes,
		Authorizations: attempts,
	}, nil
}

func (s *CardService) lookupCard(ctx context.Context, cardNumber string) (*models.Card, error) {
	if err := ValidateLuhn(cardNumber); err != nil {
		return nil, validationError(err.Error())
	}

	card, err := repository.NewCardRepository(s.db).FindByNumber(ctx, s.codec.Encode(cardNumber))
	if errors.Is(err, models.ErrNotFound) {
		return nil, cardNotFound()
	}
	if err != nil {
		s.logger.Error("failed to load card", "error", err)
		return nil, internalError("failed to load card", err)
	}

	// A stored value this codec cannot reverse is treated as an unknown card.
	decoded, err := s.codec.Decode(card.StoredNumber)
	if err != nil || decoded != cardNumber {
		s.logger.Warn("stored card number failed to decode", "card_id", card.ID, "error", err)
		return nil, cardNotFound()
	}

	return card, nil
}

// UpdateCard applies the present, differing fields of update and records one
// audit row per changed field in the same transaction.
func (s *CardService) UpdateCard(ctx context.Context, cardNumber string, update models.CardUpdate) (*models.Card, error) {
	if err := s.validateUpdateRequest(cardNumber, update); err != nil {
		return nil, err
	}

	stored := s.codec.Encode(cardNumber)

	var (
		card    *models.Card
		changes []models.CardFieldChange
	)
	err := retryOnConflict(ctx, s.retryLimit, func() error {
		return s.db.WithTx(ctx, func(tx *sql.Tx) error {
			var err error
			card, changes, err = s.performUpdate(
				ctx,
				repository.NewCardRepository(tx),
				repository.NewCardChangeRepository(tx),
				stored,
				update,
			)
			return err
		})
	})
	if err != nil {
		svcErr := translateError("failed to update card", err)
		if svcErr.Code == ErrCodeInternalError {
			s.logger.Error("card update failed", "error", err)
		}
		return nil, svcErr
	}

	if len(changes) == 0 {
		return card, nil
	}

	fields := make([]string, 0, len(changes))
	for _, c := range changes {
		fields = append(fields, string(c.Field))
	}

	s.metrics.IncrementCardUpdates()
	s.logger.Info("card updated", "card_id", card.ID, "fields", fields)

	if err := s.publisher.Publish(ctx, events.NewCardUpdated(events.CardUpdated{CardID: card.ID, Fields: fields})); err != nil {
		s.logger.Warn("failed to publish card update event", "card_id", card.ID, "error", err)
	}

	return card, nil
}

// performUpdate contains the card update business logic
func (s *CardService) performUpdate(
	ctx context.Context,
	cardRepo repository.CardRepository,
	changeRepo repository.CardChangeRepository,
	storedNumber string,
	update models.CardUpdate,
) (*models.Card, []models.CardFieldChange, error) {
	card, err := cardRepo.FindByNumberForUpdate(ctx, storedNumber)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil, cardNotFound()
	}
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	changes := diffCard(card, update, now)
	if len(changes) == 0 {
		return card, nil, nil
	}

	if card.SpendingPower().IsNegative() {
		return nil, nil, validationError("update would leave balance plus credit limit below zero")
	}

	for i := range changes {
		if err := changeRepo.Create(ctx, &changes[i]); err != nil {
			return nil, nil, err
		}
	}

	if err := cardRepo.Update(ctx, card); err != nil {
		return nil, nil, err
	}

	return card, changes, nil
}

// diffCard applies update to card in place and returns one change per field
// whose value actually changed.
func diffCard(card *models.Card, update models.CardUpdate, now time.Time) []models.CardFieldChange {
	var changes []models.CardFieldChange
	record := func(field models.CardField, oldValue, newValue string) {
		changes = append(changes, models.CardFieldChange{
			CardID:    card.ID,
			Field:     field,
			OldValue:  oldValue,
			NewValue:  newValue,
			ChangedAt: now,
		})
	}

	if update.Balance != nil && !update.Balance.Equal(card.Balance) {
		record(models.CardFieldBalance, formatMoney(card.Balance), formatMoney(*update.Balance))
		card.Balance = *update.Balance
	}

	if update.CreditLimit != nil && (!card.CreditLimit.Valid || !update.CreditLimit.Equal(card.CreditLimit.Decimal)) {
		oldValue := ""
		if card.CreditLimit.Valid {
			oldValue = formatMoney(card.CreditLimit.Decimal)
		}
		record(models.CardFieldCreditLimit, oldValue, formatMoney(*update.CreditLimit))
		card.CreditLimit = decimal.NewNullDecimal(*update.CreditLimit)
	}

	if update.IsActive != nil && *update.IsActive != card.IsActive {
		record(models.CardFieldIsActive, strconv.FormatBool(card.IsActive), strconv.FormatBool(*update.IsActive))
		card.IsActive = *update.IsActive
	}

	return changes
}

func (s *CardService) validateUpdateRequest(cardNumber string, update models.CardUpdate) error {
	if err := ValidateLuhn(cardNumber); err != nil {
		return validationError(err.Error())
	}

	if update.Balance != nil {
		if err := ValidateBalance(*update.Balance); err != nil {
			return validationError(err.Error())
		}
	}

	if update.CreditLimit != nil {
		if err := ValidateCreditLimit(*update.CreditLimit); err != nil {
			return validationError(err.Error())
		}
	}

	return nil
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// randomBalance draws uniformly from [0, upper) in whole cents
func randomBalance(upper decimal.Decimal) (decimal.Decimal, error) {
	cents := upper.Shift(2).BigInt()
	if cents.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("balance upper bound must be at least one cent, got %s", upper)
	}

	n, err := rand.Int(rand.Reader, cents)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to draw opening balance: %w", err)
	}
	return decimal.NewFromBigInt(n, -2), nil
}
