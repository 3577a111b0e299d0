package ports

import (
	"context"
	"time"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
	"github.com/emilydias-boop/mcf-insight-hub/internal/services/dedup"
)

// FirstSaleSource provides the global first-sale table
type FirstSaleSource interface {
	// Current returns the latest published table, which may lag the history
	Current(ctx context.Context) (*domain.FirstSaleTable, error)
	// Fresh returns a table rebuilt after the call began
	Fresh(ctx context.Context) (*domain.FirstSaleTable, error)
}

// GrossRevenueReport is the attribution of a sale-date window
type GrossRevenueReport struct {
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
	TableBuiltAt time.Time `json:"table_built_at"`
	*dedup.AttributionResult
}

// RevenueService defines the port for revenue reporting
type RevenueService interface {
	// GrossRevenue attributes transactions with from <= sale_date < to
	GrossRevenue(ctx context.Context, from, to time.Time) (*GrossRevenueReport, error)
}
