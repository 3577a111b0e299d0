package revenue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
	"github.com/emilydias-boop/mcf-insight-hub/internal/services/dedup"
	"github.com/emilydias-boop/mcf-insight-hub/internal/testutil/fixtures"
	"github.com/emilydias-boop/mcf-insight-hub/internal/testutil/mocks"
)

type mockFirstSaleSource struct {
	mock.Mock
}

func (m *mockFirstSaleSource) Current(ctx context.Context) (*domain.FirstSaleTable, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FirstSaleTable), args.Error(1)
}

func (m *mockFirstSaleSource) Fresh(ctx context.Context) (*domain.FirstSaleTable, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FirstSaleTable), args.Error(1)
}

func setupRevenueService() (*revenueService, *mocks.MockTransactionRepository, *mockFirstSaleSource) {
	txRepo := new(mocks.MockTransactionRepository)
	source := new(mockFirstSaleSource)
	logger := zap.NewNop()
	svc := NewRevenueService(txRepo, source, dedup.NewDeduplicator(fixtures.Catalog(), logger), logger).(*revenueService)
	return svc, txRepo, source
}

func month(m time.Month) time.Time {
	return time.Date(2025, m, 1, 0, 0, 0, 0, time.UTC)
}

func TestGrossRevenue_InstallmentOfEarlierSaleContributesZero(t *testing.T) {
	svc, txRepo, source := setupRevenueService()

	sale := fixtures.InstallmentSeries("ana", "ana@example.com", "Incorporador A001", month(1).AddDate(0, 0, 9), 3, "150", "150")

	table := domain.NewFirstSaleTable(map[domain.CustomerProductKey]string{
		{Customer: "ana@example.com", Product: "A001"}: sale[0].ID,
	}, month(1).AddDate(0, 0, 20), 1, 0)

	newcomer := fixtures.NewTransaction().
		WithID("bia-1").
		WithEmail("bia@example.com").
		WithProduct("Incorporador Completo").
		WithSaleDate(month(3).AddDate(0, 0, 2)).
		WithAmounts("1625", "1500").
		Build()

	window := []*domain.Transaction{sale[1], sale[2], newcomer}

	// bia is unknown to the January table, so the report rebuilds it
	fresh := domain.NewFirstSaleTable(map[domain.CustomerProductKey]string{
		{Customer: "ana@example.com", Product: "A001"}: sale[0].ID,
		{Customer: "bia@example.com", Product: "A009"}: newcomer.ID,
	}, month(4).Add(time.Hour), 2, 0)

	source.On("Current", mock.Anything).Return(table, nil)
	source.On("Fresh", mock.Anything).Return(fresh, nil).Once()
	txRepo.On("ListBetween", mock.Anything, mock.Anything, month(2), month(4)).Return(window, nil)

	report, err := svc.GrossRevenue(context.Background(), month(2), month(4))
	require.NoError(t, err)

	// ana's later installments add net only; bia is a first sale priced from the catalog
	assert.True(t, report.Gross.Equal(fixtures.Dec("19500")), "gross %s", report.Gross)
	assert.True(t, report.Net.Equal(fixtures.Dec("1800")), "net %s", report.Net)
	assert.Equal(t, 1, report.FirstSales)
	assert.Equal(t, 2, report.Installments)
	assert.Equal(t, 0, report.UnknownKeys)
	assert.Equal(t, month(2), report.From)
	assert.Equal(t, fresh.BuiltAt, report.TableBuiltAt)

	txRepo.AssertExpectations(t)
	source.AssertExpectations(t)
}

func TestGrossRevenue_WindowContainingFirstSale(t *testing.T) {
	svc, txRepo, source := setupRevenueService()

	sale := fixtures.InstallmentSeries("ana", "ana@example.com", "A001 mensal", month(1).AddDate(0, 0, 9), 3, "150.10", "140.10")
	table := domain.NewFirstSaleTable(map[domain.CustomerProductKey]string{
		{Customer: "ana@example.com", Product: "A001"}: sale[0].ID,
	}, month(4), 3, 0)

	source.On("Current", mock.Anything).Return(table, nil)
	txRepo.On("ListBetween", mock.Anything, mock.Anything, month(1), month(4)).Return(sale, nil)

	report, err := svc.GrossRevenue(context.Background(), month(1), month(4))
	require.NoError(t, err)

	assert.True(t, report.Gross.Equal(fixtures.Dec("497")))
	assert.True(t, report.Net.Equal(fixtures.Dec("420.30")))
	assert.Equal(t, 1, report.FirstSales)
	assert.Equal(t, 0, report.UnknownKeys)
}

func TestGrossRevenue_SkipsUnresolvableRecords(t *testing.T) {
	svc, txRepo, source := setupRevenueService()

	good := fixtures.NewTransaction().WithID("ok").WithSaleDate(month(2)).Build()
	bad := fixtures.NewTransaction().WithID("bad").WithEmail("").WithSaleDate(month(2)).Build()

	// built at the window end: the unknown key is a new sale without a rebuild
	source.On("Current", mock.Anything).Return(domain.NewFirstSaleTable(nil, month(3), 0, 0), nil)
	txRepo.On("ListBetween", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]*domain.Transaction{good, bad}, nil)

	report, err := svc.GrossRevenue(context.Background(), month(2), month(3))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "bad", report.Issues[0].TransactionID)
	assert.True(t, report.Net.Equal(good.NetAmount))
	source.AssertNotCalled(t, "Fresh", mock.Anything)
}

func TestGrossRevenue_StaleTable(t *testing.T) {
	// twelve-installment sale whose first payment landed after the last refresh
	sale := fixtures.InstallmentSeries("bia", "bia@example.com", "Incorporador Completo", month(2).AddDate(0, 0, 14), 12, "1625", "140")
	key := domain.CustomerProductKey{Customer: "bia@example.com", Product: "A009"}
	stale := domain.NewFirstSaleTable(nil, month(2), 0, 0)

	tests := []struct {
		name             string
		fresh            *domain.FirstSaleTable
		wantGross        string
		wantFirstSales   int
		wantInstallments int
		wantUnknown      int
	}{
		{
			name:             "installment of a sale started before the window adds no gross",
			fresh:            domain.NewFirstSaleTable(map[domain.CustomerProductKey]string{key: sale[0].ID}, month(4), 1, 0),
			wantGross:        "0",
			wantFirstSales:   0,
			wantInstallments: 1,
			wantUnknown:      0,
		},
		{
			name:             "key still unknown after rebuild is a new sale",
			fresh:            domain.NewFirstSaleTable(nil, month(4), 0, 0),
			wantGross:        "19500",
			wantFirstSales:   1,
			wantInstallments: 0,
			wantUnknown:      1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, txRepo, source := setupRevenueService()

			source.On("Current", mock.Anything).Return(stale, nil)
			source.On("Fresh", mock.Anything).Return(tt.fresh, nil).Once()
			txRepo.On("ListBetween", mock.Anything, mock.Anything, month(3).AddDate(0, 0, 1), month(4)).
				Return([]*domain.Transaction{sale[1]}, nil)

			report, err := svc.GrossRevenue(context.Background(), month(3).AddDate(0, 0, 1), month(4))
			require.NoError(t, err)

			assert.True(t, report.Gross.Equal(fixtures.Dec(tt.wantGross)), "gross %s", report.Gross)
			assert.True(t, report.Net.Equal(fixtures.Dec("140")), "net %s", report.Net)
			assert.Equal(t, tt.wantFirstSales, report.FirstSales)
			assert.Equal(t, tt.wantInstallments, report.Installments)
			assert.Equal(t, tt.wantUnknown, report.UnknownKeys)
			assert.Equal(t, tt.fresh.BuiltAt, report.TableBuiltAt)
			source.AssertExpectations(t)
		})
	}
}

func TestGrossRevenue_Errors(t *testing.T) {
	tests := []struct {
		name       string
		from, to   time.Time
		setupMocks func(*mocks.MockTransactionRepository, *mockFirstSaleSource)
		check      func(t *testing.T, err error)
	}{
		{
			name: "empty window",
			from: month(3),
			to:   month(3),
			check: func(t *testing.T, err error) {
				assert.True(t, domain.IsValidationError(err))
			},
		},
		{
			name: "first-sale table unavailable",
			from: month(2),
			to:   month(3),
			setupMocks: func(_ *mocks.MockTransactionRepository, source *mockFirstSaleSource) {
				source.On("Current", mock.Anything).Return(nil, errors.New("history unavailable"))
			},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "load first-sale table")
			},
		},
		{
			name: "rebuild failure",
			from: month(2),
			to:   month(3),
			setupMocks: func(txRepo *mocks.MockTransactionRepository, source *mockFirstSaleSource) {
				source.On("Current", mock.Anything).Return(domain.NewFirstSaleTable(nil, month(1), 0, 0), nil)
				source.On("Fresh", mock.Anything).Return(nil, errors.New("history unavailable"))
				txRepo.On("ListBetween", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return([]*domain.Transaction{fixtures.NewTransaction().WithSaleDate(month(2)).Build()}, nil)
			},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "refresh first-sale table")
			},
		},
		{
			name: "repository failure",
			from: month(2),
			to:   month(3),
			setupMocks: func(txRepo *mocks.MockTransactionRepository, source *mockFirstSaleSource) {
				source.On("Current", mock.Anything).Return(domain.NewFirstSaleTable(nil, month(2), 0, 0), nil)
				txRepo.On("ListBetween", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(nil, errors.New("connection refused"))
			},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "list transactions")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, txRepo, source := setupRevenueService()
			if tt.setupMocks != nil {
				tt.setupMocks(txRepo, source)
			}

			report, err := svc.GrossRevenue(context.Background(), tt.from, tt.to)
			require.Error(t, err)
			assert.Nil(t, report)
			tt.check(t, err)
		})
	}
}
