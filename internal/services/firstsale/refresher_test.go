package firstsale

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
	"github.com/emilydias-boop/mcf-insight-hub/internal/domain/ports"
	"github.com/emilydias-boop/mcf-insight-hub/internal/services/dedup"
	"github.com/emilydias-boop/mcf-insight-hub/internal/testutil/fixtures"
	"github.com/emilydias-boop/mcf-insight-hub/internal/testutil/mocks"
	"github.com/emilydias-boop/mcf-insight-hub/pkg/resilience"
)

func day(m time.Month, d int) time.Time {
	return time.Date(2025, m, d, 10, 0, 0, 0, time.UTC)
}

type refresherDeps struct {
	db     *mocks.MockDBPort
	txRepo *mocks.MockTransactionRepository
	store  *mocks.MockFirstSaleStore
}

func setupRefresher(t *testing.T, pageSize int32) (*Refresher, *refresherDeps) {
	t.Helper()
	deps := &refresherDeps{
		db:     &mocks.MockDBPort{},
		txRepo: new(mocks.MockTransactionRepository),
		store:  new(mocks.MockFirstSaleStore),
	}
	cfg := Config{
		Backoff:     &resilience.FixedBackoff{Delay: time.Millisecond},
		Timeouts:    resilience.TestTimeoutConfig(),
		PageSize:    pageSize,
		MaxAttempts: 3,
	}
	logger := zap.NewNop()
	r := NewRefresher(deps.db, deps.txRepo, deps.store, dedup.NewDeduplicator(fixtures.Catalog(), logger), cfg, logger)
	return r, deps
}

func TestRefresher_Refresh_PagesThroughHistory(t *testing.T) {
	r, deps := setupRefresher(t, 2)

	page1 := []*domain.Transaction{
		fixtures.NewTransaction().WithID("tx-1").WithEmail("ana@example.com").WithSaleDate(day(1, 5)).Build(),
		fixtures.NewTransaction().WithID("tx-2").WithEmail("ANA@example.com ").WithSaleDate(day(2, 5)).Build(),
	}
	page2 := []*domain.Transaction{
		fixtures.NewTransaction().WithID("tx-3").WithEmail("bia@example.com").WithSaleDate(day(2, 9)).Build(),
	}

	deps.txRepo.On("ListHistory", mock.Anything, mock.Anything, ports.HistoryCursor{}, int32(2)).
		Return(page1, nil).Once()
	deps.txRepo.On("ListHistory", mock.Anything, mock.Anything, ports.CursorAfter(page1[1]), int32(2)).
		Return(page2, nil).Once()
	deps.store.On("Save", mock.Anything, mock.AnythingOfType("*domain.FirstSaleTable")).Return(nil).Once()

	result, err := r.Refresh(context.Background(), TriggerCron)
	require.NoError(t, err)

	assert.Equal(t, TriggerCron, result.Trigger)
	assert.Equal(t, 2, result.Keys)
	assert.Equal(t, 3, result.Scanned)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 1, result.Attempts)
	assert.True(t, result.Persisted)

	saved := deps.store.Calls[0].Arguments.Get(1).(*domain.FirstSaleTable)
	first, ok := saved.First(domain.CustomerProductKey{Customer: "ana@example.com", Product: "A001"})
	require.True(t, ok)
	assert.Equal(t, "tx-1", first)

	age, ok := r.Age()
	assert.True(t, ok)
	assert.GreaterOrEqual(t, age, time.Duration(0))

	deps.txRepo.AssertExpectations(t)
	deps.store.AssertExpectations(t)
}

func TestRefresher_Refresh_RetriesWholeScan(t *testing.T) {
	r, deps := setupRefresher(t, 10)

	page := []*domain.Transaction{
		fixtures.NewTransaction().WithID("tx-1").Build(),
	}

	deps.txRepo.On("ListHistory", mock.Anything, mock.Anything, ports.HistoryCursor{}, int32(10)).
		Return(nil, errors.New("connection reset")).Once()
	deps.txRepo.On("ListHistory", mock.Anything, mock.Anything, ports.HistoryCursor{}, int32(10)).
		Return(page, nil).Once()
	deps.store.On("Save", mock.Anything, mock.Anything).Return(nil)

	result, err := r.Refresh(context.Background(), TriggerTicker)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, 1, result.Keys)
	assert.Equal(t, 1, result.Scanned)

	deps.txRepo.AssertExpectations(t)
}

func TestRefresher_Refresh_GivesUpAfterMaxAttempts(t *testing.T) {
	r, deps := setupRefresher(t, 10)

	deps.txRepo.On("ListHistory", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("database unavailable"))

	result, err := r.Refresh(context.Background(), TriggerCron)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "database unavailable")

	deps.txRepo.AssertNumberOfCalls(t, "ListHistory", 3)
	deps.store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)

	_, ok := r.Age()
	assert.False(t, ok, "failed refresh must not publish a table")
}

func TestRefresher_Refresh_TransactionFailure(t *testing.T) {
	r, deps := setupRefresher(t, 10)
	deps.db.FailTransactions = errors.New("cannot begin")

	_, err := r.Refresh(context.Background(), TriggerCron)
	require.Error(t, err)
	deps.txRepo.AssertNotCalled(t, "ListHistory", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRefresher_Refresh_SkipsBadRecordsAndCapsIssues(t *testing.T) {
	r, deps := setupRefresher(t, 10)
	r.cfg.MaxReportedIssues = 1

	page := []*domain.Transaction{
		fixtures.NewTransaction().WithID("tx-ok").Build(),
		fixtures.NewTransaction().WithID("tx-no-customer").WithEmail("").Build(),
		fixtures.NewTransaction().WithID("tx-short-phone").WithPhone("1234").Build(),
	}
	deps.txRepo.On("ListHistory", mock.Anything, mock.Anything, mock.Anything, int32(10)).Return(page, nil)
	deps.store.On("Save", mock.Anything, mock.Anything).Return(nil)

	result, err := r.Refresh(context.Background(), TriggerCron)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Scanned)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, 1, result.Keys)
	assert.Len(t, result.Issues, 1)
	assert.Equal(t, "tx-no-customer", result.Issues[0].TransactionID)
}

func TestRefresher_Refresh_StoreFailureServesFromMemory(t *testing.T) {
	r, deps := setupRefresher(t, 10)

	page := []*domain.Transaction{fixtures.NewTransaction().WithID("tx-1").Build()}
	deps.txRepo.On("ListHistory", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(page, nil).Once()
	deps.store.On("Save", mock.Anything, mock.Anything).Return(errors.New("redis down"))
	deps.store.On("Load", mock.Anything).Return(nil, errors.New("redis down"))

	result, err := r.Refresh(context.Background(), TriggerCron)
	require.NoError(t, err)
	assert.False(t, result.Persisted)

	table, err := r.Current(context.Background())
	require.NoError(t, err)
	assert.True(t, table.IsFirst(domain.CustomerProductKey{Customer: "cliente@example.com", Product: "A001"}, "tx-1"))

	// served from memory: no second scan
	deps.txRepo.AssertNumberOfCalls(t, "ListHistory", 1)
}

func TestRefresher_Current(t *testing.T) {
	stored := domain.NewFirstSaleTable(map[domain.CustomerProductKey]string{
		{Customer: "ana@example.com", Product: "A001"}: "tx-stored",
	}, day(3, 1), 10, 0)

	t.Run("store hit", func(t *testing.T) {
		r, deps := setupRefresher(t, 10)
		deps.store.On("Load", mock.Anything).Return(stored, nil)

		table, err := r.Current(context.Background())
		require.NoError(t, err)
		assert.Same(t, stored, table)
		deps.txRepo.AssertNotCalled(t, "ListHistory", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cold miss rebuilds on demand", func(t *testing.T) {
		r, deps := setupRefresher(t, 10)
		page := []*domain.Transaction{fixtures.NewTransaction().WithID("tx-fresh").Build()}

		deps.store.On("Load", mock.Anything).Return(nil, ports.ErrFirstSaleTableMissing)
		deps.txRepo.On("ListHistory", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(page, nil).Once()
		deps.store.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

		table, err := r.Current(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, table.Len())

		deps.txRepo.AssertExpectations(t)
		deps.store.AssertExpectations(t)
	})

	t.Run("cold miss with failing history", func(t *testing.T) {
		r, deps := setupRefresher(t, 10)

		deps.store.On("Load", mock.Anything).Return(nil, ports.ErrFirstSaleTableMissing)
		deps.txRepo.On("ListHistory", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("timeout"))

		table, err := r.Current(context.Background())
		assert.Error(t, err)
		assert.Nil(t, table)
	})
}

func TestRefresher_Current_ColdCallersShareOneScan(t *testing.T) {
	r, deps := setupRefresher(t, 10)
	release := make(chan time.Time)

	page := []*domain.Transaction{fixtures.NewTransaction().WithID("tx-1").Build()}
	deps.store.On("Load", mock.Anything).Return(nil, ports.ErrFirstSaleTableMissing)
	deps.txRepo.On("ListHistory", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		WaitUntil(release).Return(page, nil).Once()
	deps.store.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

	const callers = 5
	tables := make([]*domain.FirstSaleTable, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tables[i], errs[i] = r.Current(context.Background())
		}(i)
	}

	// hold the first scan so the other callers queue behind it
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, tables[0], tables[i])
	}
	deps.txRepo.AssertNumberOfCalls(t, "ListHistory", 1)
	deps.store.AssertNumberOfCalls(t, "Save", 1)
}

func TestRefresher_RefreshAfter(t *testing.T) {
	tests := []struct {
		name       string
		seq        func(before uint64) uint64
		wantShared bool
		wantScans  int
	}{
		{
			name:       "table published after the caller queued is reused",
			seq:        func(before uint64) uint64 { return before },
			wantShared: true,
			wantScans:  1,
		},
		{
			name:      "table from an earlier scan is rebuilt",
			seq:       func(before uint64) uint64 { return before + 1 },
			wantScans: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, deps := setupRefresher(t, 10)
			page := []*domain.Transaction{fixtures.NewTransaction().WithID("tx-1").Build()}
			deps.txRepo.On("ListHistory", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(page, nil)
			deps.store.On("Save", mock.Anything, mock.Anything).Return(nil)

			before := r.scans.Load()
			first, err := r.Refresh(context.Background(), TriggerTicker)
			require.NoError(t, err)
			assert.False(t, first.Shared)

			result, err := r.refreshAfter(context.Background(), TriggerCron, tt.seq(before))
			require.NoError(t, err)

			assert.Equal(t, tt.wantShared, result.Shared)
			assert.Equal(t, TriggerCron, result.Trigger)
			assert.Equal(t, 1, result.Keys)
			deps.txRepo.AssertNumberOfCalls(t, "ListHistory", tt.wantScans)
		})
	}
}

func TestRefresher_Fresh(t *testing.T) {
	stale := domain.NewFirstSaleTable(nil, day(1, 1), 0, 0)

	t.Run("rebuilds even when the store holds a table", func(t *testing.T) {
		r, deps := setupRefresher(t, 10)
		page := []*domain.Transaction{fixtures.NewTransaction().WithID("tx-new").Build()}

		deps.store.On("Load", mock.Anything).Return(stale, nil)
		deps.txRepo.On("ListHistory", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(page, nil).Once()
		deps.store.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

		current, err := r.Current(context.Background())
		require.NoError(t, err)
		assert.Same(t, stale, current)

		fresh, err := r.Fresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, fresh.Len())
		assert.True(t, fresh.IsFirst(domain.CustomerProductKey{Customer: "cliente@example.com", Product: "A001"}, "tx-new"))

		deps.txRepo.AssertExpectations(t)
		deps.store.AssertExpectations(t)
	})

	t.Run("scan failure", func(t *testing.T) {
		r, deps := setupRefresher(t, 10)
		deps.txRepo.On("ListHistory", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("timeout"))

		table, err := r.Fresh(context.Background())
		require.Error(t, err)
		assert.Nil(t, table)
	})
}

func TestRefresher_StartStop(t *testing.T) {
	r, deps := setupRefresher(t, 10)

	deps.txRepo.On("ListHistory", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]*domain.Transaction{}, nil)
	deps.store.On("Save", mock.Anything, mock.Anything).Return(nil)

	r.Start(context.Background(), time.Hour)

	assert.Eventually(t, func() bool {
		_, ok := r.Age()
		return ok
	}, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Stop(ctx))

	// second stop is a no-op
	require.NoError(t, r.Stop(ctx))
}

func TestRefresher_StopWithoutStart(t *testing.T) {
	r, _ := setupRefresher(t, 10)
	assert.NoError(t, r.Stop(context.Background()))
}
