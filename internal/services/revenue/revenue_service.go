package revenue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
	"github.com/emilydias-boop/mcf-insight-hub/internal/domain/ports"
	"github.com/emilydias-boop/mcf-insight-hub/internal/services/dedup"
	serviceports "github.com/emilydias-boop/mcf-insight-hub/internal/services/ports"
	"github.com/emilydias-boop/mcf-insight-hub/pkg/observability"
)

// revenueService implements the RevenueService port
type revenueService struct {
	txRepo     ports.TransactionRepository
	firstSales serviceports.FirstSaleSource
	dedup      *dedup.Deduplicator
	logger     *zap.Logger
}

// NewRevenueService creates a new revenue report service
func NewRevenueService(
	txRepo ports.TransactionRepository,
	firstSales serviceports.FirstSaleSource,
	deduplicator *dedup.Deduplicator,
	logger *zap.Logger,
) serviceports.RevenueService {
	return &revenueService{
		txRepo:     txRepo,
		firstSales: firstSales,
		dedup:      deduplicator,
		logger:     logger,
	}
}

// GrossRevenue attributes every transaction of [from, to) against the global
// first-sale table. Installments of sales that started before from carry no
// gross. Keys missing from a table built before to may have their first sale
// between the table build and from, so the table is rebuilt and the window
// attributed again before any of them is counted as new.
func (s *revenueService) GrossRevenue(ctx context.Context, from, to time.Time) (*serviceports.GrossRevenueReport, error) {
	if !from.Before(to) {
		return nil, domain.NewValidationError("invalid window: from %s must be before to %s",
			from.Format(time.RFC3339), to.Format(time.RFC3339))
	}

	table, err := s.firstSales.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("load first-sale table: %w", err)
	}

	txs, err := s.txRepo.ListBetween(ctx, nil, from, to)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	result := s.dedup.Attribute(table, txs)
	if result.UnknownKeys > 0 && table.BuiltAt.Before(to) {
		s.logger.Info("First-sale table predates window keys, rebuilding",
			zap.Int("unknown_keys", result.UnknownKeys),
			zap.Time("table_built_at", table.BuiltAt),
		)
		table, err = s.firstSales.Fresh(ctx)
		if err != nil {
			return nil, fmt.Errorf("refresh first-sale table: %w", err)
		}
		result = s.dedup.Attribute(table, txs)
	}
	observability.RecordAttribution("gross_revenue", result.Skipped, result.ReferencePriceMisses)

	s.logger.Info("Gross revenue computed",
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int("transactions", len(txs)),
		zap.Int("first_sales", result.FirstSales),
		zap.Int("installments", result.Installments),
		zap.Int("skipped", result.Skipped),
		zap.String("gross", result.Gross.StringFixed(2)),
	)

	return &serviceports.GrossRevenueReport{
		From:              from,
		To:                to,
		TableBuiltAt:      table.BuiltAt,
		AttributionResult: result,
	}, nil
}
