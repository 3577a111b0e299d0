package cache

import (
	"context"
	"sync"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
	"github.com/emilydias-boop/mcf-insight-hub/internal/domain/ports"
)

// MemoryFirstSaleStore keeps the table in process. Used when Redis is not
// configured and in tests.
type MemoryFirstSaleStore struct {
	mu    sync.RWMutex
	table *domain.FirstSaleTable
}

// NewMemoryFirstSaleStore creates an empty store
func NewMemoryFirstSaleStore() *MemoryFirstSaleStore {
	return &MemoryFirstSaleStore{}
}

// Save replaces the stored table
func (s *MemoryFirstSaleStore) Save(ctx context.Context, table *domain.FirstSaleTable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = table
	return nil
}

// Load returns the stored table or ports.ErrFirstSaleTableMissing
func (s *MemoryFirstSaleStore) Load(ctx context.Context) (*domain.FirstSaleTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.table == nil {
		return nil, ports.ErrFirstSaleTableMissing
	}
	return s.table, nil
}
