package firstsale

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
	"github.com/emilydias-boop/mcf-insight-hub/internal/domain/ports"
	"github.com/emilydias-boop/mcf-insight-hub/internal/services/dedup"
	"github.com/emilydias-boop/mcf-insight-hub/pkg/observability"
	"github.com/emilydias-boop/mcf-insight-hub/pkg/resilience"
	"github.com/emilydias-boop/mcf-insight-hub/pkg/timeutil"
)

// Trigger names what started a rebuild
type Trigger string

const (
	TriggerTicker   Trigger = "ticker"
	TriggerCron     Trigger = "cron"
	TriggerOnDemand Trigger = "on_demand"
)

// Config tunes the history scan
type Config struct {
	Backoff     resilience.BackoffStrategy
	Timeouts    *resilience.TimeoutConfig
	PageSize    int32
	MaxAttempts int
	// MaxReportedIssues caps RefreshResult.Issues; the count stays exact
	MaxReportedIssues int
}

// DefaultConfig returns production scan settings
func DefaultConfig() Config {
	return Config{
		Backoff:           resilience.DefaultExponentialBackoff(),
		Timeouts:          resilience.DefaultTimeoutConfig(),
		PageSize:          5000,
		MaxAttempts:       4,
		MaxReportedIssues: 100,
	}
}

// RefreshResult summarizes one rebuild
type RefreshResult struct {
	BuiltAt   time.Time           `json:"built_at"`
	Issues    []dedup.RecordIssue `json:"issues"`
	Trigger   Trigger             `json:"trigger"`
	Duration  time.Duration       `json:"duration_ns"`
	Keys      int                 `json:"keys"`
	Scanned   int                 `json:"scanned"`
	Skipped   int                 `json:"skipped"`
	Attempts  int                 `json:"attempts"`
	Persisted bool                `json:"persisted"`
	// Shared is set when a rebuild finished while this call waited and its
	// table was returned instead of scanning again
	Shared bool `json:"shared"`
}

// Refresher materializes the first-sale table from the full transaction
// history and publishes it to a FirstSaleStore.
type Refresher struct {
	db     ports.DBPort
	txRepo ports.TransactionRepository
	store  ports.FirstSaleStore
	dedup  *dedup.Deduplicator
	logger *zap.Logger
	cfg    Config

	// refreshMu serializes rebuilds
	refreshMu sync.Mutex
	// scans numbers every history scan as it begins
	scans atomic.Uint64

	lastMu     sync.RWMutex
	last       *domain.FirstSaleTable
	lastScan   uint64
	lastResult *RefreshResult

	stopOnce sync.Once
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewRefresher creates a refresher
func NewRefresher(
	db ports.DBPort,
	txRepo ports.TransactionRepository,
	store ports.FirstSaleStore,
	deduplicator *dedup.Deduplicator,
	cfg Config,
	logger *zap.Logger,
) *Refresher {
	defaults := DefaultConfig()
	if cfg.Backoff == nil {
		cfg.Backoff = defaults.Backoff
	}
	if cfg.Timeouts == nil {
		cfg.Timeouts = defaults.Timeouts
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaults.PageSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.MaxReportedIssues <= 0 {
		cfg.MaxReportedIssues = defaults.MaxReportedIssues
	}

	return &Refresher{
		db:     db,
		txRepo: txRepo,
		store:  store,
		dedup:  deduplicator,
		cfg:    cfg,
		logger: logger,
	}
}

// Refresh rebuilds the table from a consistent snapshot of the full history.
// Fetch failures are retried with backoff; each attempt restarts the scan.
// Callers that queue behind a running rebuild get the table of any scan that
// began after they called instead of scanning again.
func (r *Refresher) Refresh(ctx context.Context, trigger Trigger) (*RefreshResult, error) {
	return r.refreshAfter(ctx, trigger, r.scans.Load())
}

// refreshAfter rebuilds unless a table from a scan numbered above seq has
// already been published
func (r *Refresher) refreshAfter(ctx context.Context, trigger Trigger, seq uint64) (*RefreshResult, error) {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	if shared, ok := r.publishedAfter(seq, trigger); ok {
		r.logger.Debug("First-sale table rebuilt while waiting, reusing it",
			zap.String("trigger", string(trigger)),
			zap.Time("built_at", shared.BuiltAt),
		)
		return shared, nil
	}

	ctx, cancel := r.cfg.Timeouts.RefreshContext(ctx)
	defer cancel()

	start := time.Now()
	attempts := 0
	var scanSeq uint64
	var table *domain.FirstSaleTable
	var issues []dedup.RecordIssue

	err := resilience.Retry(ctx, r.cfg.MaxAttempts, r.cfg.Backoff, func(ctx context.Context) error {
		attempts++
		scanSeq = r.scans.Add(1)
		var scanErr error
		table, issues, scanErr = r.scan(ctx)
		if scanErr != nil {
			r.logger.Warn("First-sale history scan failed",
				zap.Int("attempt", attempts),
				zap.Error(scanErr),
			)
		}
		return scanErr
	})
	if err != nil {
		observability.RecordFirstSaleRefresh(string(trigger), "failed", time.Since(start).Seconds())
		r.logger.Error("First-sale refresh failed",
			zap.String("trigger", string(trigger)),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return nil, fmt.Errorf("refresh first-sale table: %w", err)
	}

	persisted := true
	if err := r.store.Save(ctx, table); err != nil {
		persisted = false
		r.logger.Warn("Failed to persist first-sale table, serving from memory",
			zap.Error(err),
		)
	}

	duration := time.Since(start)
	observability.RecordFirstSaleRefresh(string(trigger), "success", duration.Seconds())
	observability.UpdateFirstSaleTable(table.Len(), table.TransactionCount, table.SkippedCount)

	reported := issues
	if len(reported) > r.cfg.MaxReportedIssues {
		reported = reported[:r.cfg.MaxReportedIssues]
	}

	r.logger.Info("First-sale table refreshed",
		zap.String("trigger", string(trigger)),
		zap.Int("keys", table.Len()),
		zap.Int("scanned", table.TransactionCount),
		zap.Int("skipped", table.SkippedCount),
		zap.Duration("duration", duration),
	)

	result := &RefreshResult{
		BuiltAt:   table.BuiltAt,
		Issues:    reported,
		Trigger:   trigger,
		Duration:  duration,
		Keys:      table.Len(),
		Scanned:   table.TransactionCount,
		Skipped:   table.SkippedCount,
		Attempts:  attempts,
		Persisted: persisted,
	}

	r.lastMu.Lock()
	r.last = table
	r.lastScan = scanSeq
	r.lastResult = result
	r.lastMu.Unlock()

	return result, nil
}

// publishedAfter returns a copy of the last result when its scan is numbered
// above seq
func (r *Refresher) publishedAfter(seq uint64, trigger Trigger) (*RefreshResult, bool) {
	r.lastMu.RLock()
	defer r.lastMu.RUnlock()
	if r.last == nil || r.lastScan <= seq {
		return nil, false
	}
	shared := *r.lastResult
	shared.Trigger = trigger
	shared.Duration = 0
	shared.Attempts = 0
	shared.Shared = true
	return &shared, true
}

// scan streams the history page by page inside one read-only transaction
func (r *Refresher) scan(ctx context.Context) (*domain.FirstSaleTable, []dedup.RecordIssue, error) {
	builder := r.dedup.NewBuilder()

	err := r.db.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		cursor := ports.HistoryCursor{}
		for {
			pageCtx, cancel := r.cfg.Timeouts.PageFetchContext(ctx)
			page, err := r.txRepo.ListHistory(pageCtx, tx, cursor, r.cfg.PageSize)
			cancel()
			if err != nil {
				return fmt.Errorf("list history after %q: %w", cursor.ID, err)
			}

			builder.AddAll(page)

			if int32(len(page)) < r.cfg.PageSize {
				return nil
			}
			cursor = ports.CursorAfter(page[len(page)-1])
		}
	})
	if err != nil {
		return nil, nil, err
	}

	table, issues := builder.Build()
	return table, issues, nil
}

// Current returns the latest materialized table: the store first, then the
// in-process copy, then an on-demand rebuild.
func (r *Refresher) Current(ctx context.Context) (*domain.FirstSaleTable, error) {
	table, err := r.store.Load(ctx)
	switch {
	case err == nil:
		observability.RecordFirstSaleStoreLookup("hit")
		return table, nil
	case errors.Is(err, ports.ErrFirstSaleTableMissing):
		observability.RecordFirstSaleStoreLookup("miss")
	default:
		observability.RecordFirstSaleStoreLookup("error")
		r.logger.Warn("First-sale store unavailable", zap.Error(err))
	}

	if last := r.lastTable(); last != nil {
		return last, nil
	}

	// any published table will do; concurrent cold callers share one scan
	if _, err := r.refreshAfter(ctx, TriggerOnDemand, 0); err != nil {
		return nil, err
	}
	return r.lastTable(), nil
}

// Fresh returns a table built by a scan that began after the call. Callers
// use it when the current table may predate transactions they hold.
func (r *Refresher) Fresh(ctx context.Context) (*domain.FirstSaleTable, error) {
	if _, err := r.refreshAfter(ctx, TriggerOnDemand, r.scans.Load()); err != nil {
		return nil, err
	}
	return r.lastTable(), nil
}

func (r *Refresher) lastTable() *domain.FirstSaleTable {
	r.lastMu.RLock()
	defer r.lastMu.RUnlock()
	return r.last
}

// Age returns how long ago the in-process table was built
func (r *Refresher) Age() (time.Duration, bool) {
	r.lastMu.RLock()
	defer r.lastMu.RUnlock()
	if r.last == nil {
		return 0, false
	}
	return timeutil.Now().Sub(r.last.BuiltAt), true
}

// Start refreshes immediately and then on every interval until Stop is
// called or ctx ends. Failures are logged; the previous table stays in use.
func (r *Refresher) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		_, _ = r.Refresh(ctx, TriggerTicker)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_, _ = r.Refresh(ctx, TriggerTicker)
			}
		}
	}()

	r.logger.Info("First-sale refresher started", zap.Duration("interval", interval))
}

// Stop halts the background loop and waits for an in-flight rebuild
func (r *Refresher) Stop(ctx context.Context) error {
	if r.cancel == nil {
		return nil
	}
	r.stopOnce.Do(r.cancel)

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
