//go:build integration

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benx421/rapidpay/internal/events"
	"github.com/benx421/rapidpay/internal/models"
	"github.com/benx421/rapidpay/internal/repository"
	"github.com/benx421/rapidpay/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledgerFixture struct {
	cards    *CardService
	payments *PaymentService
	auth     *AuthorizationService
	fees     *FeeService
}

func newLedgerFixture(t *testing.T) (*ledgerFixture, context.Context) {
	t.Helper()

	database := testutil.NewPostgres(t)
	codec := newTestCodec(t)

	return &ledgerFixture{
		cards:    NewCardService(database, codec, testLogger, nil, events.NopPublisher{}, dec("2147483647"), 3),
		payments: NewPaymentService(database, codec, testLogger, nil, events.NopPublisher{}, 3),
		auth:     NewAuthorizationService(database, codec, testLogger, nil, 5*time.Second),
		fees:     NewFeeService(database, testLogger, nil),
	}, context.Background()
}

// issueCard creates a card and pins its balance and limit through the update path.
func (f *ledgerFixture) issueCard(t *testing.T, ctx context.Context, balance string, creditLimit *decimal.Decimal) string {
	t.Helper()

	issued, err := f.cards.CreateCard(ctx, creditLimit)
	require.NoError(t, err)

	_, err = f.cards.UpdateCard(ctx, issued.Number, models.CardUpdate{Balance: decPtr(balance)})
	require.NoError(t, err)
	return issued.Number
}

func (f *ledgerFixture) setFee(t *testing.T, ctx context.Context, fee string) {
	t.Helper()
	require.NoError(t, repository.NewFeeRepository(f.fees.db).Append(ctx, &models.FeeEntry{Fee: dec(fee)}))
}

func TestLedger_PaymentDebitsAmountPlusFee(t *testing.T) {
	f, ctx := newLedgerFixture(t)
	number := f.issueCard(t, ctx, "1000.00", nil)
	f.setFee(t, ctx, "1.50")

	txn, err := f.payments.Pay(ctx, number, dec("100.00"))
	require.NoError(t, err)
	assert.Equal(t, "1.50", txn.Fee.StringFixed(2))

	card, err := f.cards.GetBalance(ctx, number)
	require.NoError(t, err)
	assert.Equal(t, "898.50", card.Balance.StringFixed(2))
}

func TestLedger_PaymentBeyondSpendingPowerLeavesBalance(t *testing.T) {
	f, ctx := newLedgerFixture(t)
	number := f.issueCard(t, ctx, "50.00", decPtr("0"))
	f.setFee(t, ctx, "1.00")

	_, err := f.payments.Pay(ctx, number, dec("100.00"))

	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, ErrCodeCardNotAuthorized, svcErr.Code)

	card, err := f.cards.GetBalance(ctx, number)
	require.NoError(t, err)
	assert.Equal(t, "50.00", card.Balance.StringFixed(2))
}

func TestLedger_ConcurrentPaymentsNeverOverspend(t *testing.T) {
	f, ctx := newLedgerFixture(t)
	number := f.issueCard(t, ctx, "1000.00", nil)
	f.setFee(t, ctx, "1.00")

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.payments.Pay(ctx, number, dec("199.00")); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)

	card, err := f.cards.GetBalance(ctx, number)
	require.NoError(t, err)
	assert.Equal(t, "0.00", card.Balance.StringFixed(2))
}

func TestLedger_AuthorizationVelocityWindow(t *testing.T) {
	f, ctx := newLedgerFixture(t)
	number := f.issueCard(t, ctx, "1000.00", nil)

	assert.True(t, f.auth.Authorize(ctx, number), "fresh card should be authorized")

	_, err := f.payments.Pay(ctx, number, dec("1.00"))
	require.NoError(t, err)

	assert.False(t, f.auth.Authorize(ctx, number), "payment just happened")
	assert.False(t, f.auth.Authorize(ctx, "4556737586899855"), "unknown card")
}

func TestLedger_UpdateWritesAuditTrail(t *testing.T) {
	f, ctx := newLedgerFixture(t)
	issued, err := f.cards.CreateCard(ctx, decPtr("1000.00"))
	require.NoError(t, err)

	_, err = f.cards.UpdateCard(ctx, issued.Number, models.CardUpdate{Balance: decPtr("1000.00")})
	require.NoError(t, err)

	card, err := f.cards.UpdateCard(ctx, issued.Number, models.CardUpdate{
		Balance:     decPtr("500.00"),
		CreditLimit: decPtr("2000.00"),
		IsActive:    boolPtr(false),
	})
	require.NoError(t, err)
	assert.False(t, card.IsActive)

	changes, err := repository.NewCardChangeRepository(f.cards.db).ListByCard(ctx, card.ID)
	require.NoError(t, err)

	var fields []models.CardField
	for _, c := range changes {
		if c.Field != models.CardFieldBalance || c.NewValue == "500.00" {
			fields = append(fields, c.Field)
		}
	}
	assert.ElementsMatch(t, []models.CardField{models.CardFieldBalance, models.CardFieldCreditLimit, models.CardFieldIsActive}, fields)
}

func TestLedger_CardHistory(t *testing.T) {
	f, ctx := newLedgerFixture(t)
	number := f.issueCard(t, ctx, "1000.00", nil)

	_, err := f.cards.UpdateCard(ctx, number, models.CardUpdate{CreditLimit: decPtr("10.00")})
	require.NoError(t, err)
	assert.True(t, f.auth.Authorize(ctx, number))
	_, err = f.payments.Pay(ctx, number, dec("25.00"))
	require.NoError(t, err)

	history, err := f.cards.GetHistory(ctx, number)
	require.NoError(t, err)
	require.Len(t, history.Transactions, 1)
	assert.True(t, history.Transactions[0].Amount.Equal(dec("25.00")))
	var limitChanged bool
	for _, c := range history.Changes {
		limitChanged = limitChanged || (c.Field == models.CardFieldCreditLimit && c.NewValue == "10.00")
	}
	assert.True(t, limitChanged, "credit limit change is part of the history")
	require.Len(t, history.Authorizations, 1)
	assert.True(t, history.Authorizations[0].Granted)

	_, err = f.cards.GetHistory(ctx, "4556737586899855")
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, ErrCodeCardNotFound, svcErr.Code)
}

func TestLedger_FeeTimeline(t *testing.T) {
	f, ctx := newLedgerFixture(t)

	fee, err := f.fees.CurrentFee(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0.00", fee.StringFixed(2))

	evolved, err := f.fees.EvolveFee(ctx)
	require.NoError(t, err)
	assert.True(t, evolved.GreaterThan(decimal.Zero))
	assert.True(t, evolved.LessThan(dec("2")))

	current, err := f.fees.CurrentFee(ctx)
	require.NoError(t, err)
	assert.True(t, evolved.Equal(current))
}
