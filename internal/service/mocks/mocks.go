// Package mocks provides testify mocks for the service interfaces consumed by
// the HTTP handlers.
package mocks

import (
	"context"

	"github.com/benx421/rapidpay/internal/models"
	"github.com/benx421/rapidpay/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// TestingT is the subset of *testing.T the constructors need.
type TestingT interface {
	mock.TestingT
	Cleanup(func())
}

var (
	_ service.CardManager   = (*MockCardManager)(nil)
	_ service.Authorizer    = (*MockAuthorizer)(nil)
	_ service.Payer         = (*MockPayer)(nil)
	_ service.FeeManager    = (*MockFeeManager)(nil)
	_ service.HealthChecker = (*MockHealthChecker)(nil)
)

// MockCardManager is a mock implementation of service.CardManager
type MockCardManager struct {
	mock.Mock
}

func NewMockCardManager(t TestingT) *MockCardManager {
	m := &MockCardManager{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCardManager) CreateCard(ctx context.Context, creditLimit *decimal.Decimal) (*models.IssuedCard, error) {
	args := m.Called(ctx, creditLimit)
	issued, _ := args.Get(0).(*models.IssuedCard)
	return issued, args.Error(1)
}

func (m *MockCardManager) GetBalance(ctx context.Context, cardNumber string) (*models.Card, error) {
	args := m.Called(ctx, cardNumber)
	card, _ := args.Get(0).(*models.Card)
	return card, args.Error(1)
}

func (m *MockCardManager) GetHistory(ctx context.Context, cardNumber string) (*models.CardHistory, error) {
	args := m.Called(ctx, cardNumber)
	history, _ := args.Get(0).(*models.CardHistory)
	return history, args.Error(1)
}

func (m *MockCardManager) UpdateCard(ctx context.Context, cardNumber string, update models.CardUpdate) (*models.Card, error) {
	args := m.Called(ctx, cardNumber, update)
	card, _ := args.Get(0).(*models.Card)
	return card, args.Error(1)
}

// MockAuthorizer is a mock implementation of service.Authorizer
type MockAuthorizer struct {
	mock.Mock
}

func NewMockAuthorizer(t TestingT) *MockAuthorizer {
	m := &MockAuthorizer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockAuthorizer) Authorize(ctx context.Context, cardNumber string) bool {
	args := m.Called(ctx, cardNumber)
	return args.Bool(0)
}

// MockPayer is a mock implementation of service.Payer
type MockPayer struct {
	mock.Mock
}

func NewMockPayer(t TestingT) *MockPayer {
	m := &MockPayer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPayer) Pay(ctx context.Context, cardNumber string, amount decimal.Decimal) (*models.Transaction, error) {
	args := m.Called(ctx, cardNumber, amount)
	txn, _ := args.Get(0).(*models.Transaction)
	return txn, args.Error(1)
}

// MockFeeManager is a mock implementation of service.FeeManager
type MockFeeManager struct {
	mock.Mock
}

func NewMockFeeManager(t TestingT) *MockFeeManager {
	m := &MockFeeManager{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockFeeManager) CurrentFee(ctx context.Context) (decimal.Decimal, error) {
	return m.feeCall("CurrentFee", ctx)
}

func (m *MockFeeManager) EvolveFee(ctx context.Context) (decimal.Decimal, error) {
	return m.feeCall("EvolveFee", ctx)
}

func (m *MockFeeManager) SeedFee(ctx context.Context) (decimal.Decimal, error) {
	return m.feeCall("SeedFee", ctx)
}

func (m *MockFeeManager) StepFee(ctx context.Context) (decimal.Decimal, error) {
	return m.feeCall("StepFee", ctx)
}

func (m *MockFeeManager) feeCall(method string, ctx context.Context) (decimal.Decimal, error) {
	args := m.MethodCalled(method, ctx)
	fee, _ := args.Get(0).(decimal.Decimal)
	return fee, args.Error(1)
}

// MockHealthChecker is a mock implementation of service.HealthChecker
type MockHealthChecker struct {
	mock.Mock
}

func NewMockHealthChecker(t TestingT) *MockHealthChecker {
	m := &MockHealthChecker{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockHealthChecker) PingContext(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
