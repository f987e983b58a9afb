// Package mocks provides testify mocks for the repository interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/benx421/rapidpay/internal/models"
	"github.com/benx421/rapidpay/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// TestingT is the subset of *testing.T the constructors need.
type TestingT interface {
	mock.TestingT
	Cleanup(func())
}

var (
	_ repository.CardRepository          = (*MockCardRepository)(nil)
	_ repository.TransactionRepository   = (*MockTransactionRepository)(nil)
	_ repository.AuthorizationRepository = (*MockAuthorizationRepository)(nil)
	_ repository.FeeRepository           = (*MockFeeRepository)(nil)
	_ repository.CardChangeRepository    = (*MockCardChangeRepository)(nil)
	_ repository.IdempotencyRepository   = (*MockIdempotencyRepository)(nil)
)

// MockCardRepository is a mock implementation of repository.CardRepository
type MockCardRepository struct {
	mock.Mock
}

// NewMockCardRepository creates a mock whose expectations are asserted on test cleanup.
func NewMockCardRepository(t TestingT) *MockCardRepository {
	m := &MockCardRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCardRepository) FindByNumber(ctx context.Context, storedNumber string) (*models.Card, error) {
	args := m.Called(ctx, storedNumber)
	card, _ := args.Get(0).(*models.Card)
	return card, args.Error(1)
}

func (m *MockCardRepository) FindByNumberForUpdate(ctx context.Context, storedNumber string) (*models.Card, error) {
	args := m.Called(ctx, storedNumber)
	card, _ := args.Get(0).(*models.Card)
	return card, args.Error(1)
}

func (m *MockCardRepository) Create(ctx context.Context, card *models.Card) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

func (m *MockCardRepository) Debit(ctx context.Context, cardID uuid.UUID, amount decimal.Decimal) (*models.Card, error) {
	args := m.Called(ctx, cardID, amount)
	card, _ := args.Get(0).(*models.Card)
	return card, args.Error(1)
}

func (m *MockCardRepository) Update(ctx context.Context, card *models.Card) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

// MockTransactionRepository is a mock implementation of repository.TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

// NewMockTransactionRepository creates a mock whose expectations are asserted on test cleanup.
func NewMockTransactionRepository(t TestingT) *MockTransactionRepository {
	m := &MockTransactionRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTransactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) FindLatestByCard(ctx context.Context, cardID uuid.UUID) (*models.Transaction, error) {
	args := m.Called(ctx, cardID)
	txn, _ := args.Get(0).(*models.Transaction)
	return txn, args.Error(1)
}

func (m *MockTransactionRepository) ListByCard(ctx context.Context, cardID uuid.UUID) ([]models.Transaction, error) {
	args := m.Called(ctx, cardID)
	txns, _ := args.Get(0).([]models.Transaction)
	return txns, args.Error(1)
}

// MockAuthorizationRepository is a mock implementation of repository.AuthorizationRepository
type MockAuthorizationRepository struct {
	mock.Mock
}

// NewMockAuthorizationRepository creates a mock whose expectations are asserted on test cleanup.
func NewMockAuthorizationRepository(t TestingT) *MockAuthorizationRepository {
	m := &MockAuthorizationRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockAuthorizationRepository) Create(ctx context.Context, record *models.AuthorizationRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockAuthorizationRepository) ListByCard(ctx context.Context, cardID uuid.UUID) ([]models.AuthorizationRecord, error) {
	args := m.Called(ctx, cardID)
	records, _ := args.Get(0).([]models.AuthorizationRecord)
	return records, args.Error(1)
}

// MockFeeRepository is a mock implementation of repository.FeeRepository
type MockFeeRepository struct {
	mock.Mock
}

// NewMockFeeRepository creates a mock whose expectations are asserted on test cleanup.
func NewMockFeeRepository(t TestingT) *MockFeeRepository {
	m := &MockFeeRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockFeeRepository) Latest(ctx context.Context) (*models.FeeEntry, error) {
	args := m.Called(ctx)
	entry, _ := args.Get(0).(*models.FeeEntry)
	return entry, args.Error(1)
}

func (m *MockFeeRepository) Append(ctx context.Context, entry *models.FeeEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockCardChangeRepository is a mock implementation of repository.CardChangeRepository
type MockCardChangeRepository struct {
	mock.Mock
}

// NewMockCardChangeRepository creates a mock whose expectations are asserted on test cleanup.
func NewMockCardChangeRepository(t TestingT) *MockCardChangeRepository {
	m := &MockCardChangeRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCardChangeRepository) Create(ctx context.Context, change *models.CardFieldChange) error {
	args := m.Called(ctx, change)
	return args.Error(0)
}

func (m *MockCardChangeRepository) ListByCard(ctx context.Context, cardID uuid.UUID) ([]models.CardFieldChange, error) {
	args := m.Called(ctx, cardID)
	changes, _ := args.Get(0).([]models.CardFieldChange)
	return changes, args.Error(1)
}

// MockIdempotencyRepository is a mock implementation of repository.IdempotencyRepository
type MockIdempotencyRepository struct {
	mock.Mock
}

// NewMockIdempotencyRepository creates a mock whose expectations are asserted on test cleanup.
func NewMockIdempotencyRepository(t TestingT) *MockIdempotencyRepository {
	m := &MockIdempotencyRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockIdempotencyRepository) Reserve(ctx context.Context, key, requestPath string) (*models.IdempotencyKey, error) {
	args := m.Called(ctx, key, requestPath)
	idemKey, _ := args.Get(0).(*models.IdempotencyKey)
	return idemKey, args.Error(1)
}

func (m *MockIdempotencyRepository) Complete(ctx context.Context, idemKey *models.IdempotencyKey) error {
	args := m.Called(ctx, idemKey)
	return args.Error(0)
}

func (m *MockIdempotencyRepository) Release(ctx context.Context, key, requestPath string) error {
	args := m.Called(ctx, key, requestPath)
	return args.Error(0)
}

func (m *MockIdempotencyRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	deleted, _ := args.Get(0).(int64)
	return deleted, args.Error(1)
}
