package ports

import (
	"context"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
)

// PayoutRepository persists payouts and their adjustment ledger
type PayoutRepository interface {
	// Create inserts a draft payout with version 1.
	// Returns ErrPayoutAlreadyExists when person+period is taken.
	Create(ctx context.Context, db DBTX, payout *domain.Payout) error

	// GetByID loads a payout with its adjustments in creation order.
	// Returns ErrPayoutNotFound when missing.
	GetByID(ctx context.Context, db DBTX, id string) (*domain.Payout, error)

	// Update writes the payout header only if the stored version still equals
	// expectedVersion, then sets payout.Version to expectedVersion+1.
	// Returns ErrPayoutVersionConflict otherwise.
	Update(ctx context.Context, db DBTX, payout *domain.Payout, expectedVersion int64) error

	// ListByPeriod returns every payout of a period, ordered by person
	ListByPeriod(ctx context.Context, db DBTX, periodKey string) ([]*domain.Payout, error)

	// InsertAdjustment appends one immutable ledger entry
	InsertAdjustment(ctx context.Context, db DBTX, adj *domain.PayoutAdjustment) error
}
