// Package mocks provides shared mock implementations for testing.
package mocks

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/mock"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
	"github.com/emilydias-boop/mcf-insight-hub/internal/domain/ports"
)

// MockDBPort runs transaction callbacks inline with a nil pgx.Tx.
// A non-nil FailTransactions is returned without running the callback.
type MockDBPort struct {
	FailTransactions error
}

func (m *MockDBPort) GetDB() *pgxpool.Pool {
	return nil
}

func (m *MockDBPort) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	if m.FailTransactions != nil {
		return m.FailTransactions
	}
	return fn(ctx, nil)
}

func (m *MockDBPort) WithReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	if m.FailTransactions != nil {
		return m.FailTransactions
	}
	return fn(ctx, nil)
}

// MockTransactionRepository mocks ports.TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, db ports.DBTX, tx *domain.Transaction) error {
	args := m.Called(ctx, db, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) ListHistory(ctx context.Context, db ports.DBTX, after ports.HistoryCursor, limit int32) ([]*domain.Transaction, error) {
	args := m.Called(ctx, db, after, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListBetween(ctx context.Context, db ports.DBTX, from, to time.Time) ([]*domain.Transaction, error) {
	args := m.Called(ctx, db, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Transaction), args.Error(1)
}

// MockPayoutRepository mocks ports.PayoutRepository
type MockPayoutRepository struct {
	mock.Mock
}

func (m *MockPayoutRepository) Create(ctx context.Context, db ports.DBTX, payout *domain.Payout) error {
	args := m.Called(ctx, db, payout)
	return args.Error(0)
}

// GetByID also accepts a func(id string) *domain.Payout return value so a
// test can serve state written by earlier Update calls.
func (m *MockPayoutRepository) GetByID(ctx context.Context, db ports.DBTX, id string) (*domain.Payout, error) {
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	if fn, ok := args.Get(0).(func(string) *domain.Payout); ok {
		return fn(id), args.Error(1)
	}
	return args.Get(0).(*domain.Payout), args.Error(1)
}

func (m *MockPayoutRepository) Update(ctx context.Context, db ports.DBTX, payout *domain.Payout, expectedVersion int64) error {
	args := m.Called(ctx, db, payout, expectedVersion)
	return args.Error(0)
}

func (m *MockPayoutRepository) ListByPeriod(ctx context.Context, db ports.DBTX, periodKey string) ([]*domain.Payout, error) {
	args := m.Called(ctx, db, periodKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payout), args.Error(1)
}

func (m *MockPayoutRepository) InsertAdjustment(ctx context.Context, db ports.DBTX, adj *domain.PayoutAdjustment) error {
	args := m.Called(ctx, db, adj)
	return args.Error(0)
}

// MockFirstSaleStore mocks ports.FirstSaleStore
type MockFirstSaleStore struct {
	mock.Mock
}

func (m *MockFirstSaleStore) Save(ctx context.Context, table *domain.FirstSaleTable) error {
	args := m.Called(ctx, table)
	return args.Error(0)
}

func (m *MockFirstSaleStore) Load(ctx context.Context) (*domain.FirstSaleTable, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FirstSaleTable), args.Error(1)
}
