package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/benx421/rapidpay/internal/cardcodec"
	"github.com/benx421/rapidpay/internal/db"
	"github.com/benx421/rapidpay/internal/events"
	"github.com/benx421/rapidpay/internal/metrics"
	"github.com/benx421/rapidpay/internal/models"
	"github.com/benx421/rapidpay/internal/repository"
	"github.com/shopspring/decimal"
)

// PaymentService debits cards for payments plus the current fee
type PaymentService struct {
	db         *db.DB
	codec      *cardcodec.Codec
	logger     *slog.Logger
	metrics    *metrics.Metrics
	publisher  events.Publisher
	now        func() time.Time
	retryLimit int
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	database *db.DB,
	codec *cardcodec.Codec,
	logger *slog.Logger,
	m *metrics.Metrics,
	publisher events.Publisher,
	retryLimit int,
) *PaymentService {
	return &PaymentService{
		db:         database,
		codec:      codec,
		logger:     logger,
		metrics:    m,
		publisher:  publisher,
		now:        func() time.Time { return time.Now().UTC() },
		retryLimit: retryLimit,
	}
}

// Pay charges amount plus the current fee to the card and records the transaction
func (s *PaymentService) Pay(ctx context.Context, cardNumber string, amount decimal.Decimal) (*models.Transaction, error) {
	if err := s.validatePaymentRequest(cardNumber, amount); err != nil {
		return nil, err
	}

	stored := s.codec.Encode(cardNumber)

	var txn *models.Transaction
	err := retryOnConflict(ctx, s.retryLimit, func() error {
		return s.db.WithTx(ctx, func(tx *sql.Tx) error {
			var err error
			txn, err = s.performPayment(
				ctx,
				repository.NewCardRepository(tx),
				repository.NewTransactionRepository(tx),
				repository.NewFeeRepository(tx),
				stored,
				amount,
			)
			return err
		})
	})
	if err != nil {
		svcErr := translateError("failed to process payment", err)
		s.recordFailure(svcErr)
		return nil, svcErr
	}

	s.metrics.RecordPayment(metrics.OutcomeCompleted)
	s.logger.Info("payment completed",
		"card_id", txn.CardID,
		"transaction_id", txn.ID,
		"amount", txn.Amount.StringFixed(2),
		"fee", txn.Fee.StringFixed(2),
	)

	event := events.NewPaymentCompleted(events.PaymentCompleted{
		TransactionID: txn.ID,
		CardID:        txn.CardID,
		Amount:        txn.Amount,
		Fee:           txn.Fee,
		OccurredAt:    txn.OccurredAt,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish payment event", "transaction_id", txn.ID, "error", err)
	}

	return txn, nil
}

// performPayment contains the core payment business logic. It must run inside
// a transaction so the row lock taken on the card is held until commit.
func (s *PaymentService) performPayment(
	ctx context.Context,
	cardRepo repository.CardRepository,
	transactionRepo repository.TransactionRepository,
	feeRepo repository.FeeRepository,
	storedNumber string,
	amount decimal.Decimal,
) (*models.Transaction, error) {
	card, err := cardRepo.FindByNumberForUpdate(ctx, storedNumber)
	if errors.Is(err, models.ErrNotFound) {
		return nil, cardNotAuthorized()
	}
	if err != nil {
		return nil, err
	}

	if !card.IsActive {
		return nil, cardNotAuthorized()
	}

	fee, err := currentFee(ctx, feeRepo)
	if err != nil {
		return nil, err
	}

	total := amount.Add(fee)
	if card.SpendingPower().LessThan(total) {
		return nil, cardNotAuthorized()
	}

	if _, err := cardRepo.Debit(ctx, card.ID, total); err != nil {
		if errors.Is(err, models.ErrInsufficientFundsOrInactive) {
			return nil, cardNotAuthorized()
		}
		return nil, err
	}

	txn := &models.Transaction{
		CardID:     card.ID,
		Amount:     amount,
		Fee:        fee,
		OccurredAt: s.now(),
	}
	if err := transactionRepo.Create(ctx, txn); err != nil {
		return nil, err
	}

	return txn, nil
}

func (s *PaymentService) validatePaymentRequest(cardNumber string, amount decimal.Decimal) error {
	if err := ValidateLuhn(cardNumber); err != nil {
		return validationError(err.Error())
	}

	if err := ValidateAmount(amount); err != nil {
		return validationError(err.Error())
	}

	return nil
}

func (s *PaymentService) recordFailure(svcErr *ServiceError) {
	switch svcErr.Code {
	case ErrCodeCardNotAuthorized:
		s.metrics.RecordPayment(metrics.OutcomeNotAuthorized)
	case ErrCodeConflict:
		s.logger.Warn("payment abandoned after repeated conflicts", "error", svcErr.Err)
		s.metrics.RecordPayment(metrics.OutcomeConflict)
	default:
		s.logger.Error("payment failed", "error", svcErr.Err)
		s.metrics.RecordPayment(metrics.OutcomeError)
	}
}
