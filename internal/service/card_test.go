package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/benx421/rapidpay/internal/events"
	"github.com/benx421/rapidpay/internal/models"
	"github.com/benx421/rapidpay/internal/repository/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestCardService(t *testing.T) *CardService {
	svc := NewCardService(nil, newTestCodec(t), testLogger, nil, events.NopPublisher{}, dec("2147483647"), 3)
	svc.now = fixedClock
	svc.generateNumber = func() (string, error) { return testCardNumber, nil }
	svc.randomBalance = func(decimal.Decimal) (decimal.Decimal, error) { return dec("1234.56"), nil }
	return svc
}

func TestCardService_PerformCreate(t *testing.T) {
	tests := []struct {
		creditLimit *decimal.Decimal
		name        string
	}{
		{name: "without credit limit", creditLimit: nil},
		{name: "with credit limit", creditLimit: decPtr("500.00")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockCardRepo := mocks.NewMockCardRepository(t)
			service := newTestCardService(t)
			ctx := context.Background()

			wantStored := service.codec.Encode(testCardNumber)
			mockCardRepo.On("Create", ctx, mock.MatchedBy(func(c *models.Card) bool {
				return c.StoredNumber == wantStored && c.IsActive && c.Balance.Equal(dec("1234.56"))
			})).Return(nil).Once()

			issued, err := service.performCreate(ctx, mockCardRepo, tt.creditLimit)

			require.NoError(t, err)
			assert.Equal(t, testCardNumber, issued.Number)
			assert.NotEqual(t, testCardNumber, issued.Card.StoredNumber, "plaintext must never be stored")
			assert.Equal(t, tt.creditLimit != nil, issued.Card.CreditLimit.Valid)
			if tt.creditLimit != nil {
				assert.True(t, tt.creditLimit.Equal(issued.Card.CreditLimit.Decimal))
			}
		})
	}
}

func TestCardService_PerformCreate_Errors(t *testing.T) {
	t.Run("number generation fails", func(t *testing.T) {
		mockCardRepo := mocks.NewMockCardRepository(t)
		service := newTestCardService(t)
		service.generateNumber = func() (string, error) { return "", assert.AnError }

		_, err := service.performCreate(context.Background(), mockCardRepo, nil)
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("duplicate number surfaces as conflict", func(t *testing.T) {
		mockCardRepo := mocks.NewMockCardRepository(t)
		service := newTestCardService(t)
		ctx := context.Background()

		mockCardRepo.On("Create", ctx, mock.AnythingOfType("*models.Card")).
			Return(fmt.Errorf("create: %w", models.ErrConflict))

		_, err := service.performCreate(ctx, mockCardRepo, nil)
		assert.ErrorIs(t, err, models.ErrConflict)
	})
}

func TestCardService_CreateCard_RejectsInvalidCreditLimit(t *testing.T) {
	for _, limit := range []string{"-1.00", "1e20"} {
		t.Run(limit, func(t *testing.T) {
			service := newTestCardService(t)

			_, err := service.CreateCard(context.Background(), decPtr(limit))

			var svcErr *ServiceError
			if assert.ErrorAs(t, err, &svcErr) {
				assert.Equal(t, ErrCodeValidation, svcErr.Code)
			}
		})
	}
}

func TestRandomBalance(t *testing.T) {
	upper := dec("100.00")
	for i := 0; i < 500; i++ {
		balance, err := randomBalance(upper)
		require.NoError(t, err)
		assert.False(t, balance.IsNegative())
		assert.True(t, balance.LessThan(upper))
		assert.True(t, balance.Equal(balance.Round(2)), "balance %s has sub-cent precision", balance)
	}

	_, err := randomBalance(decimal.Zero)
	assert.Error(t, err)
}

func TestDiffCard(t *testing.T) {
	t.Run("three fields change", func(t *testing.T) {
		card := testCard("1000.00", limit("1000.00"), true)

		changes := diffCard(card, models.CardUpdate{
			Balance:     decPtr("500"),
			CreditLimit: decPtr("2000"),
			IsActive:    boolPtr(false),
		}, fixedNow)

		require.Len(t, changes, 3)
		assert.Equal(t, models.CardFieldChange{CardID: card.ID, Field: models.CardFieldBalance, OldValue: "1000.00", NewValue: "500.00", ChangedAt: fixedNow}, changes[0])
		assert.Equal(t, models.CardFieldChange{CardID: card.ID, Field: models.CardFieldCreditLimit, OldValue: "1000.00", NewValue: "2000.00", ChangedAt: fixedNow}, changes[1])
		assert.Equal(t, models.CardFieldChange{CardID: card.ID, Field: models.CardFieldIsActive, OldValue: "true", NewValue: "false", ChangedAt: fixedNow}, changes[2])

		assert.Equal(t, "500.00", card.Balance.StringFixed(2))
		assert.Equal(t, "2000.00", card.CreditLimit.Decimal.StringFixed(2))
		assert.False(t, card.IsActive)
	})

	t.Run("equal values are not changes", func(t *testing.T) {
		card := testCard("1000.00", limit("250.00"), true)

		changes := diffCard(card, models.CardUpdate{
			Balance:     decPtr("1000"),
			CreditLimit: decPtr("250.0"),
			IsActive:    boolPtr(true),
		}, fixedNow)

		assert.Empty(t, changes)
	})

	t.Run("absent fields are left alone", func(t *testing.T) {
		card := testCard("1000.00", nil, true)

		changes := diffCard(card, models.CardUpdate{}, fixedNow)

		assert.Empty(t, changes)
		assert.False(t, card.CreditLimit.Valid)
	})

	t.Run("setting a first credit limit records an empty old value", func(t *testing.T) {
		card := testCard("10.00", nil, true)

		changes := diffCard(card, models.CardUpdate{CreditLimit: decPtr("0")}, fixedNow)

		require.Len(t, changes, 1)
		assert.Equal(t, "", changes[0].OldValue)
		assert.Equal(t, "0.00", changes[0].NewValue)
		assert.True(t, card.CreditLimit.Valid)
	})
}

func TestCardService_PerformUpdate(t *testing.T) {
	t.Run("writes one audit row per changed field then the card", func(t *testing.T) {
		mockCardRepo := mocks.NewMockCardRepository(t)
		mockChangeRepo := mocks.NewMockCardChangeRepository(t)
		service := newTestCardService(t)
		ctx := context.Background()

		card := testCard("1000.00", limit("1000.00"), true)
		mockCardRepo.On("FindByNumberForUpdate", ctx, card.StoredNumber).Return(card, nil)
		mockChangeRepo.On("Create", ctx, mock.AnythingOfType("*models.CardFieldChange")).Return(nil).Times(3)
		mockCardRepo.On("Update", ctx, card).Return(nil).Once()

		updated, changes, err := service.performUpdate(ctx, mockCardRepo, mockChangeRepo, card.StoredNumber, models.CardUpdate{
			Balance:     decPtr("500.00"),
			CreditLimit: decPtr("2000.00"),
			IsActive:    boolPtr(false),
		})

		require.NoError(t, err)
		assert.Len(t, changes, 3)
		assert.Equal(t, "500.00", updated.Balance.StringFixed(2))
		assert.False(t, updated.IsActive)
	})

	t.Run("no-op update writes nothing", func(t *testing.T) {
		mockCardRepo := mocks.NewMockCardRepository(t)
		mockChangeRepo := mocks.NewMockCardChangeRepository(t)
		service := newTestCardService(t)
		ctx := context.Background()

		card := testCard("1000.00", nil, true)
		mockCardRepo.On("FindByNumberForUpdate", ctx, card.StoredNumber).Return(card, nil)

		updated, changes, err := service.performUpdate(ctx, mockCardRepo, mockChangeRepo, card.StoredNumber, models.CardUpdate{IsActive: boolPtr(true)})

		require.NoError(t, err)
		assert.Empty(t, changes)
		assert.Same(t, card, updated)
		mockCardRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("unknown card", func(t *testing.T) {
		mockCardRepo := mocks.NewMockCardRepository(t)
		mockChangeRepo := mocks.NewMockCardChangeRepository(t)
		service := newTestCardService(t)
		ctx := context.Background()

		mockCardRepo.On("FindByNumberForUpdate", ctx, "missing").Return(nil, models.ErrNotFound)

		_, _, err := service.performUpdate(ctx, mockCardRepo, mockChangeRepo, "missing", models.CardUpdate{IsActive: boolPtr(false)})

		var svcErr *ServiceError
		if assert.ErrorAs(t, err, &svcErr) {
			assert.Equal(t, ErrCodeCardNotFound, svcErr.Code)
		}
	})

	t.Run("update leaving negative spending power is rejected", func(t *testing.T) {
		mockCardRepo := mocks.NewMockCardRepository(t)
		mockChangeRepo := mocks.NewMockCardChangeRepository(t)
		service := newTestCardService(t)
		ctx := context.Background()

		card := testCard("100.00", limit("50.00"), true)
		mockCardRepo.On("FindByNumberForUpdate", ctx, card.StoredNumber).Return(card, nil)

		_, _, err := service.performUpdate(ctx, mockCardRepo, mockChangeRepo, card.StoredNumber, models.CardUpdate{Balance: decPtr("-50.01")})

		var svcErr *ServiceError
		if assert.ErrorAs(t, err, &svcErr) {
			assert.Equal(t, ErrCodeValidation, svcErr.Code)
		}
		mockChangeRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("audit write fails before the card is touched", func(t *testing.T) {
		mockCardRepo := mocks.NewMockCardRepository(t)
		mockChangeRepo := mocks.NewMockCardChangeRepository(t)
		service := newTestCardService(t)
		ctx := context.Background()

		card := testCard("100.00", nil, true)
		mockCardRepo.On("FindByNumberForUpdate", ctx, card.StoredNumber).Return(card, nil)
		mockChangeRepo.On("Create", ctx, mock.AnythingOfType("*models.CardFieldChange")).Return(assert.AnError)

		_, _, err := service.performUpdate(ctx, mockCardRepo, mockChangeRepo, card.StoredNumber, models.CardUpdate{Balance: decPtr("10")})

		assert.ErrorIs(t, err, assert.AnError)
		mockCardRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestCardService_ValidateUpdateRequest(t *testing.T) {
	service := newTestCardService(t)

	tests := []struct {
		update     models.CardUpdate
		name       string
		cardNumber string
		wantErr    bool
	}{
		{name: "empty update", cardNumber: testCardNumber, wantErr: false},
		{name: "negative balance is allowed", cardNumber: testCardNumber, update: models.CardUpdate{Balance: decPtr("-10")}, wantErr: false},
		{name: "negative credit limit", cardNumber: testCardNumber, update: models.CardUpdate{CreditLimit: decPtr("-1")}, wantErr: true},
		{name: "sub-cent balance", cardNumber: testCardNumber, update: models.CardUpdate{Balance: decPtr("1.001")}, wantErr: true},
		{name: "balance beyond column range", cardNumber: testCardNumber, update: models.CardUpdate{Balance: decPtr("1e20")}, wantErr: true},
		{name: "credit limit beyond column range", cardNumber: testCardNumber, update: models.CardUpdate{CreditLimit: decPtr("1e20")}, wantErr: true},
		{name: "bad card number", cardNumber: "42", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.validateUpdateRequest(tt.cardNumber, tt.update)
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

func TestCardService_PerformHistory(t *testing.T) {
	service := newTestCardService(t)
	ctx := context.Background()
	card := testCard("100.00", nil, true)

	t.Run("collects every trail", func(t *testing.T) {
		txnRepo := mocks.NewMockTransactionRepository(t)
		changeRepo := mocks.NewMockCardChangeRepository(t)
		authRepo := mocks.NewMockAuthorizationRepository(t)

		txnRepo.On("ListByCard", ctx, card.ID).Return([]models.Transaction{{CardID: card.ID, Amount: dec("5.00")}}, nil)
		changeRepo.On("ListByCard", ctx, card.ID).Return([]models.CardFieldChange{{CardID: card.ID, Field: models.CardFieldBalance}}, nil)
		authRepo.On("ListByCard", ctx, card.ID).Return([]models.AuthorizationRecord{{CardID: &card.ID, Granted: true}}, nil)

		history, err := service.performHistory(ctx, card, txnRepo, changeRepo, authRepo)

		require.NoError(t, err)
		assert.Same(t, card, history.Card)
		assert.Len(t, history.Transactions, 1)
		assert.Len(t, history.Changes, 1)
		assert.Len(t, history.Authorizations, 1)
	})

	t.Run("stops at the first failure", func(t *testing.T) {
		txnRepo := mocks.NewMockTransactionRepository(t)
		changeRepo := mocks.NewMockCardChangeRepository(t)
		authRepo := mocks.NewMockAuthorizationRepository(t)

		txnRepo.On("ListByCard", ctx, card.ID).Return(nil, nil)
		changeRepo.On("ListByCard", ctx, card.ID).Return(nil, assert.AnError)

		_, err := service.performHistory(ctx, card, txnRepo, changeRepo, authRepo)

		assert.ErrorIs(t, err, assert.AnError)
		authRepo.AssertNotCalled(t, "ListByCard", mock.Anything, mock.Anything)
	})
}

func TestCardService_GetHistory_RejectsInvalidNumber(t *testing.T) {
	service := newTestCardService(t)

	_, err := service.GetHistory(context.Background(), "1234")

	var svcErr *ServiceError
	if assert.ErrorAs(t, err, &svcErr) {
		assert.Equal(t, ErrCodeValidation, svcErr.Code)
	}
}
