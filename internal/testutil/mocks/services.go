package mocks

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
	"github.com/emilydias-boop/mcf-insight-hub/internal/services/ports"
)

// MockPayoutService is a mock implementation of ports.PayoutService
type MockPayoutService struct {
	mock.Mock
}

func (m *MockPayoutService) CreateDraft(ctx context.Context, req *ports.CreatePayoutRequest) (*domain.Payout, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payout), args.Error(1)
}

func (m *MockPayoutService) Recalculate(ctx context.Context, req *ports.RecalculatePayoutRequest) (*domain.Payout, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payout), args.Error(1)
}

func (m *MockPayoutService) AddAdjustment(ctx context.Context, req *ports.AddAdjustmentRequest) (*domain.Payout, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payout), args.Error(1)
}

func (m *MockPayoutService) Approve(ctx context.Context, payoutID, approverID string) (*domain.Payout, error) {
	args := m.Called(ctx, payoutID, approverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payout), args.Error(1)
}

func (m *MockPayoutService) Lock(ctx context.Context, payoutID string) (*domain.Payout, error) {
	args := m.Called(ctx, payoutID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payout), args.Error(1)
}

func (m *MockPayoutService) Get(ctx context.Context, payoutID string) (*domain.Payout, error) {
	args := m.Called(ctx, payoutID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payout), args.Error(1)
}

func (m *MockPayoutService) ListByPeriod(ctx context.Context, periodKey string) ([]*domain.Payout, error) {
	args := m.Called(ctx, periodKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payout), args.Error(1)
}

// MockCommissionService is a mock implementation of ports.CommissionService
type MockCommissionService struct {
	mock.Mock
}

func (m *MockCommissionService) Summarize(ctx context.Context, req *ports.CommissionSummaryRequest) (*domain.CommissionSummary, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CommissionSummary), args.Error(1)
}

func (m *MockCommissionService) Breakdown(ctx context.Context, productType domain.ProductType, creditValue decimal.Decimal) ([]domain.InstallmentCommission, error) {
	args := m.Called(ctx, productType, creditValue)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InstallmentCommission), args.Error(1)
}

// MockRevenueService is a mock implementation of ports.RevenueService
type MockRevenueService struct {
	mock.Mock
}

func (m *MockRevenueService) GrossRevenue(ctx context.Context, from, to time.Time) (*ports.GrossRevenueReport, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.GrossRevenueReport), args.Error(1)
}
