package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/benx421/rapidpay/internal/events"
	"github.com/benx421/rapidpay/internal/models"
	"github.com/benx421/rapidpay/internal/repository/mocks"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestPaymentService(t *testing.T) *PaymentService {
	svc := NewPaymentService(nil, newTestCodec(t), testLogger, nil, events.NopPublisher{}, 3)
	svc.now = fixedClock
	return svc
}

func testCard(balance string, creditLimit *string, active bool) *models.Card {
	card := &models.Card{
		ID:           uuid.New(),
		StoredNumber: "stored-card",
		Balance:      dec(balance),
		IsActive:     active,
	}
	if creditLimit != nil {
		card.CreditLimit = decimal.NewNullDecimal(dec(*creditLimit))
	}
	return card
}

func limit(s string) *string { return &s }

func TestPaymentService_PerformPayment(t *testing.T) {
	t.Run("debits amount plus fee", func(t *testing.T) {
		mockCardRepo := mocks.NewMockCardRepository(t)
		mockTxRepo := mocks.NewMockTransactionRepository(t)
		mockFeeRepo := mocks.NewMockFeeRepository(t)
		service := newTestPaymentService(t)
		ctx := context.Background()

		card := testCard("1000.00", nil, true)
		debited := *card
		debited.Balance = dec("898.50")

		mockCardRepo.On("FindByNumberForUpdate", ctx, card.StoredNumber).Return(card, nil)
		mockFeeRepo.On("Latest", ctx).Return(&models.FeeEntry{Fee: dec("1.50")}, nil)
		mockCardRepo.On("Debit", ctx, card.ID, decimalEq("101.50")).Return(&debited, nil).Once()
		mockTxRepo.On("Create", ctx, mock.MatchedBy(func(txn *models.Transaction) bool {
			return txn.CardID == card.ID &&
				txn.Amount.Equal(dec("100.00")) &&
				txn.Fee.Equal(dec("1.50")) &&
				txn.OccurredAt.Equal(fixedNow)
		})).Return(nil).Once()

		txn, err := service.performPayment(ctx, mockCardRepo, mockTxRepo, mockFeeRepo, card.StoredNumber, dec("100.00"))

		require.NoError(t, err)
		assert.Equal(t, card.ID, txn.CardID)
		assert.Equal(t, "100.00", txn.Amount.StringFixed(2))
		assert.Equal(t, "1.50", txn.Fee.StringFixed(2))
		assert.Equal(t, "101.50", txn.Total().StringFixed(2))
	})

	t.Run("credit limit extends spending power", func(t *testing.T) {
		mockCardRepo := mocks.NewMockCardRepository(t)
		mockTxRepo := mocks.NewMockTransactionRepository(t)
		mockFeeRepo := mocks.NewMockFeeRepository(t)
		service := newTestPaymentService(t)
		ctx := context.Background()

		card := testCard("50.00", limit("100.00"), true)

		mockCardRepo.On("FindByNumberForUpdate", ctx, card.StoredNumber).Return(card, nil)
		mockFeeRepo.On("Latest", ctx).Return(&models.FeeEntry{Fee: dec("1.00")}, nil)
		mockCardRepo.On("Debit", ctx, card.ID, decimalEq("101.00")).Return(card, nil).Once()
		mockTxRepo.On("Create", ctx, mock.AnythingOfType("*models.Transaction")).Return(nil).Once()

		_, err := service.performPayment(ctx, mockCardRepo, mockTxRepo, mockFeeRepo, card.StoredNumber, dec("100.00"))

		require.NoError(t, err)
	})

	t.Run("empty fee timeline charges no fee", func(t *testing.T) {
		mockCardRepo := mocks.NewMockCardRepository(t)
		mockTxRepo := mocks.NewMockTransactionRepository(t)
		mockFeeRepo := mocks.NewMockFeeRepository(t)
		service := newTestPaymentService(t)
		ctx := context.Background()

		card := testCard("10.00", nil, true)

		mockCardRepo.On("FindByNumberForUpdate", ctx, card.StoredNumber).Return(card, nil)
		mockFeeRepo.On("Latest", ctx).Return(nil, models.ErrNotFound)
		mockCardRepo.On("Debit", ctx, card.ID, decimalEq("10.00")).Return(card, nil).Once()
		mockTxRepo.On("Create", ctx, mock.AnythingOfType("*models.Transaction")).Return(nil).Once()

		txn, err := service.performPayment(ctx, mockCardRepo, mockTxRepo, mockFeeRepo, card.StoredNumber, dec("10.00"))

		require.NoError(t, err)
		assert.True(t, txn.Fee.IsZero())
	})
}

func TestPaymentService_PerformPayment_NotAuthorized(t *testing.T) {
	tests := []struct {
		card    *models.Card
		name    string
		amount  string
		fee     string
		lookup  error
		debit   error
		lookups bool
	}{
		{name: "unknown card", lookup: models.ErrNotFound, amount: "1.00"},
		{name: "inactive card", card: testCard("1000.00", nil, false), amount: "1.00"},
		{name: "fee tips the balance over", card: testCard("50.00", nil, true), amount: "100.00", fee: "1.00", lookups: true},
		{name: "amount equals balance but fee does not fit", card: testCard("100.00", nil, true), amount: "100.00", fee: "0.01", lookups: true},
		{name: "conditional debit matched no row", card: testCard("1000.00", nil, true), amount: "100.00", fee: "1.00", lookups: true, debit: models.ErrInsufficientFundsOrInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockCardRepo := mocks.NewMockCardRepository(t)
			mockTxRepo := mocks.NewMockTransactionRepository(t)
			mockFeeRepo := mocks.NewMockFeeRepository(t)
			service := newTestPaymentService(t)
			ctx := context.Background()

			mockCardRepo.On("FindByNumberForUpdate", ctx, "stored-card").Return(tt.card, tt.lookup)
			if tt.lookups {
				mockFeeRepo.On("Latest", ctx).Return(&models.FeeEntry{Fee: dec(tt.fee)}, nil)
			}
			if tt.debit != nil {
				mockCardRepo.On("Debit", ctx, tt.card.ID, mock.Anything).
					Return(nil, fmt.Errorf("debit: %w", tt.debit))
			}

			txn, err := service.performPayment(ctx, mockCardRepo, mockTxRepo, mockFeeRepo, "stored-card", dec(tt.amount))

			assert.Nil(t, txn)
			var svcErr *ServiceError
			if assert.ErrorAs(t, err, &svcErr) {
				assert.Equal(t, ErrCodeCardNotAuthorized, svcErr.Code)
			}
			mockTxRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestPaymentService_PerformPayment_StoreFailures(t *testing.T) {
	t.Run("lock conflict propagates for retry", func(t *testing.T) {
		mockCardRepo := mocks.NewMockCardRepository(t)
		mockTxRepo := mocks.NewMockTransactionRepository(t)
		mockFeeRepo := mocks.NewMockFeeRepository(t)
		service := newTestPaymentService(t)
		ctx := context.Background()

		mockCardRepo.On("FindByNumberForUpdate", ctx, "stored-card").
			Return(nil, fmt.Errorf("lock: %w", models.ErrConflict))

		_, err := service.performPayment(ctx, mockCardRepo, mockTxRepo, mockFeeRepo, "stored-card", dec("1.00"))

		assert.ErrorIs(t, err, models.ErrConflict)
	})

	t.Run("transaction insert fails", func(t *testing.T) {
		mockCardRepo := mocks.NewMockCardRepository(t)
		mockTxRepo := mocks.NewMockTransactionRepository(t)
		mockFeeRepo := mocks.NewMockFeeRepository(t)
		service := newTestPaymentService(t)
		ctx := context.Background()

		card := testCard("1000.00", nil, true)
		mockCardRepo.On("FindByNumberForUpdate", ctx, card.StoredNumber).Return(card, nil)
		mockFeeRepo.On("Latest", ctx).Return(&models.FeeEntry{Fee: dec("1.00")}, nil)
		mockCardRepo.On("Debit", ctx, card.ID, decimalEq("11.00")).Return(card, nil)
		mockTxRepo.On("Create", ctx, mock.AnythingOfType("*models.Transaction")).Return(assert.AnError)

		txn, err := service.performPayment(ctx, mockCardRepo, mockTxRepo, mockFeeRepo, card.StoredNumber, dec("10.00"))

		assert.Nil(t, txn)
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestPaymentService_ValidatePaymentRequest(t *testing.T) {
	service := newTestPaymentService(t)

	tests := []struct {
		name       string
		cardNumber string
		amount     string
		wantErr    bool
	}{
		{name: "valid", cardNumber: testCardNumber, amount: "10.00", wantErr: false},
		{name: "zero amount", cardNumber: testCardNumber, amount: "0", wantErr: true},
		{name: "negative amount", cardNumber: testCardNumber, amount: "-5", wantErr: true},
		{name: "bad card number", cardNumber: "1234567890123456", amount: "10.00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.validatePaymentRequest(tt.cardNumber, dec(tt.amount))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			var svcErr *ServiceError
			if assert.ErrorAs(t, err, &svcErr) {
				assert.Equal(t, ErrCodeValidation, svcErr.Code)
			}
		})
	}
}
