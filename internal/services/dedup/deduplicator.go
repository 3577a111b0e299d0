package dedup

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
	"github.com/emilydias-boop/mcf-insight-hub/pkg/timeutil"
)

// RecordIssue describes a transaction excluded from aggregation
type RecordIssue struct {
	Err           error  `json:"-"`
	TransactionID string `json:"transaction_id"`
	Reason        string `json:"reason"`
}

func newIssue(tx *domain.Transaction, err error) RecordIssue {
	id := ""
	if tx != nil {
		id = tx.ID
	}
	return RecordIssue{TransactionID: id, Reason: err.Error(), Err: err}
}

// Deduplicator is the single entry point for first-sale grouping and gross
// attribution. Every report goes through it.
type Deduplicator struct {
	normalizer *Normalizer
	catalog    *domain.ProductCatalog
	logger     *zap.Logger
}

// NewDeduplicator creates a deduplicator over the product catalog
func NewDeduplicator(catalog *domain.ProductCatalog, logger *zap.Logger) *Deduplicator {
	return &Deduplicator{
		normalizer: NewNormalizer(catalog),
		catalog:    catalog,
		logger:     logger,
	}
}

// Normalizer exposes the key derivation used by this deduplicator
func (d *Deduplicator) Normalizer() *Normalizer {
	return d.normalizer
}

// NewBuilder starts an incremental first-sale table build
func (d *Deduplicator) NewBuilder() *TableBuilder {
	return &TableBuilder{
		dedup:  d,
		firsts: make(map[domain.CustomerProductKey]candidate),
	}
}

// Deduplicate groups txs by CustomerProductKey and picks, per key, the
// transaction with the earliest sale date (ties by id ascending). Records that
// cannot be normalized are skipped and returned as issues. The result does not
// depend on input order.
func (d *Deduplicator) Deduplicate(txs []*domain.Transaction) (*domain.FirstSaleTable, []RecordIssue) {
	b := d.NewBuilder()
	b.AddAll(txs)
	return b.Build()
}

// IsFirst reports whether tx opened its sale according to table
func (d *Deduplicator) IsFirst(table *domain.FirstSaleTable, tx *domain.Transaction) (bool, error) {
	key, err := d.normalizer.Key(tx)
	if err != nil {
		return false, err
	}
	return table.IsFirst(key, tx.ID), nil
}

// GrossFor returns the headline gross contribution of tx.
// A gross override always wins. Otherwise a first transaction is worth the
// product's reference price (its own gross amount when none is configured)
// and later installments are worth zero.
func (d *Deduplicator) GrossFor(tx *domain.Transaction, isFirst bool) decimal.Decimal {
	gross, _ := d.grossFor(tx, isFirst)
	return gross
}

// grossFor also reports whether a first sale fell back to the paid amount
func (d *Deduplicator) grossFor(tx *domain.Transaction, isFirst bool) (decimal.Decimal, bool) {
	if tx.GrossOverride != nil {
		return *tx.GrossOverride, false
	}
	if !isFirst {
		return decimal.Zero, false
	}

	if d.catalog != nil {
		if product, err := d.normalizer.ProductKey(tx); err == nil {
			if price, ok := d.catalog.ReferencePrice(product); ok {
				return price, false
			}
		}
	}
	return tx.GrossAmount, true
}

type candidate struct {
	saleDate time.Time
	id       string
}

func (c candidate) before(other candidate) bool {
	if !c.saleDate.Equal(other.saleDate) {
		return c.saleDate.Before(other.saleDate)
	}
	return c.id < other.id
}

// TableBuilder accumulates transactions page by page into a FirstSaleTable.
// It is not safe for concurrent use.
type TableBuilder struct {
	dedup   *Deduplicator
	firsts  map[domain.CustomerProductKey]candidate
	issues  []RecordIssue
	scanned int
}

// Add folds one transaction into the table under construction
func (b *TableBuilder) Add(tx *domain.Transaction) {
	b.scanned++

	key, err := b.dedup.keyOf(tx)
	if err != nil {
		b.issues = append(b.issues, newIssue(tx, err))
		b.dedup.logger.Warn("Skipping transaction with unresolvable key",
			zap.String("transaction_id", tx.ID),
			zap.Error(err),
		)
		return
	}

	c := candidate{saleDate: tx.SaleDate, id: tx.ID}
	if current, ok := b.firsts[key]; !ok || c.before(current) {
		b.firsts[key] = c
	}
}

// AddAll folds a batch of transactions
func (b *TableBuilder) AddAll(txs []*domain.Transaction) {
	for _, tx := range txs {
		if tx == nil {
			continue
		}
		b.Add(tx)
	}
}

// Scanned returns the number of transactions added so far
func (b *TableBuilder) Scanned() int {
	return b.scanned
}

// Build returns the table and the issues collected so far
func (b *TableBuilder) Build() (*domain.FirstSaleTable, []RecordIssue) {
	firsts := make(map[domain.CustomerProductKey]string, len(b.firsts))
	for k, c := range b.firsts {
		firsts[k] = c.id
	}
	issues := make([]RecordIssue, len(b.issues))
	copy(issues, b.issues)

	return domain.NewFirstSaleTable(firsts, timeutil.Now(), b.scanned, len(issues)), issues
}

// keyOf validates tx and derives its key
func (d *Deduplicator) keyOf(tx *domain.Transaction) (domain.CustomerProductKey, error) {
	if err := tx.Validate(); err != nil {
		return domain.CustomerProductKey{}, err
	}
	return d.normalizer.Key(tx)
}
