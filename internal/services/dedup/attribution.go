package dedup

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
)

// AttributionLine is the per-transaction outcome of an attribution run
type AttributionLine struct {
	Gross         decimal.Decimal           `json:"gross"`
	Net           decimal.Decimal           `json:"net"`
	Key           domain.CustomerProductKey `json:"key"`
	TransactionID string                    `json:"transaction_id"`
	IsFirst       bool                      `json:"is_first"`
}

// AttributionResult aggregates headline gross and collected net for a set
// of transactions
type AttributionResult struct {
	Gross decimal.Decimal `json:"gross"`
	Net   decimal.Decimal `json:"net"`
	// Issues lists the skipped records; len(Issues) == Skipped
	Issues []RecordIssue     `json:"issues"`
	Lines  []AttributionLine `json:"lines"`
	// FirstSales and Installments split the attributed records
	FirstSales   int `json:"first_sales"`
	Installments int `json:"installments"`
	Skipped      int `json:"skipped"`
	// ReferencePriceMisses counts first sales without a catalog price
	ReferencePriceMisses int `json:"reference_price_misses"`
	// UnknownKeys counts keys newer than the table, resolved within txs
	UnknownKeys int `json:"unknown_keys"`
}

// Attribute computes gross and net for txs against the global first-sale
// table. A transaction whose key is absent from the table (a sale newer than
// the last refresh) is first when it is the earliest of its key within txs.
func (d *Deduplicator) Attribute(table *domain.FirstSaleTable, txs []*domain.Transaction) *AttributionResult {
	result := &AttributionResult{
		Gross:  decimal.Zero,
		Net:    decimal.Zero,
		Issues: []RecordIssue{},
		Lines:  make([]AttributionLine, 0, len(txs)),
	}

	type keyed struct {
		tx  *domain.Transaction
		key domain.CustomerProductKey
	}
	valid := make([]keyed, 0, len(txs))
	localFirsts := make(map[domain.CustomerProductKey]candidate)

	for _, tx := range txs {
		if tx == nil {
			continue
		}
		key, err := d.keyOf(tx)
		if err != nil {
			result.Issues = append(result.Issues, newIssue(tx, err))
			d.logger.Warn("Excluding transaction from attribution",
				zap.String("transaction_id", tx.ID),
				zap.Error(err),
			)
			continue
		}
		valid = append(valid, keyed{tx: tx, key: key})

		if _, known := table.First(key); known {
			continue
		}
		c := candidate{saleDate: tx.SaleDate, id: tx.ID}
		if current, ok := localFirsts[key]; !ok || c.before(current) {
			localFirsts[key] = c
		}
	}
	result.Skipped = len(result.Issues)
	result.UnknownKeys = len(localFirsts)

	for _, v := range valid {
		isFirst := table.IsFirst(v.key, v.tx.ID)
		if local, ok := localFirsts[v.key]; ok {
			isFirst = local.id == v.tx.ID
		}

		gross, miss := d.grossFor(v.tx, isFirst)
		if miss {
			result.ReferencePriceMisses++
		}
		if isFirst {
			result.FirstSales++
		} else {
			result.Installments++
		}

		result.Gross = result.Gross.Add(gross)
		result.Net = result.Net.Add(v.tx.NetAmount)
		result.Lines = append(result.Lines, AttributionLine{
			TransactionID: v.tx.ID,
			Key:           v.key,
			IsFirst:       isFirst,
			Gross:         gross,
			Net:           v.tx.NetAmount,
		})
	}

	if result.Skipped > 0 {
		d.logger.Info("Attribution skipped records",
			zap.Int("skipped", result.Skipped),
			zap.Int("attributed", len(result.Lines)),
		)
	}

	return result
}
