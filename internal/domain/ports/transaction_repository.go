package ports

import (
	"context"
	"time"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
)

// HistoryCursor is a keyset position in the (sale_date, id) ordering.
// The zero value starts from the oldest record.
type HistoryCursor struct {
	SaleDate time.Time
	ID       string
}

// IsZero returns true for the starting cursor
func (c HistoryCursor) IsZero() bool {
	return c.ID == "" && c.SaleDate.IsZero()
}

// CursorAfter returns the cursor positioned after tx
func CursorAfter(tx *domain.Transaction) HistoryCursor {
	return HistoryCursor{SaleDate: tx.SaleDate, ID: tx.ID}
}

// TransactionRepository reads payment records owned by the source channels.
// A nil db argument uses the repository's pool.
type TransactionRepository interface {
	// Create stores a record; an existing id is left untouched
	Create(ctx context.Context, db DBTX, tx *domain.Transaction) error

	// ListHistory returns up to limit records strictly after cursor,
	// ordered by sale_date then id ascending
	ListHistory(ctx context.Context, db DBTX, after HistoryCursor, limit int32) ([]*domain.Transaction, error)

	// ListBetween returns records with from <= sale_date < to
	ListBetween(ctx context.Context, db DBTX, from, to time.Time) ([]*domain.Transaction, error)
}
