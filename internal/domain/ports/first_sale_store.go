package ports

import (
	"context"
	"errors"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
)

// ErrFirstSaleTableMissing is returned by Load when nothing was saved yet
var ErrFirstSaleTableMissing = errors.New("first-sale table not materialized")

// FirstSaleStore holds the latest materialized first-sale table
type FirstSaleStore interface {
	Save(ctx context.Context, table *domain.FirstSaleTable) error
	Load(ctx context.Context) (*domain.FirstSaleTable, error)
}
