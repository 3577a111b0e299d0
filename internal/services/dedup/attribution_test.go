package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
)

func TestAttribute_WindowDoesNotRecountOlderSales(t *testing.T) {
	d := newTestDeduplicator(t)
	history := threeMonthSale()
	table, _ := d.Deduplicate(history)

	// March report: only the third installment falls inside the window
	var march []*domain.Transaction
	for _, tx := range history {
		if tx.ID == "tx-mar" {
			march = append(march, tx)
		}
	}

	result := d.Attribute(table, march)
	assert.True(t, result.Gross.IsZero(), "installment of a January sale adds no March gross")
	assert.True(t, dec("150.10").Equal(result.Net))
	assert.Equal(t, 0, result.FirstSales)
	assert.Equal(t, 1, result.Installments)
	assert.Equal(t, 0, result.UnknownKeys)
}

func TestAttribute_SaleNewerThanTable(t *testing.T) {
	d := newTestDeduplicator(t)
	table, _ := d.Deduplicate(threeMonthSale())

	window := []*domain.Transaction{
		installment("tx-new-2", "carla@example.com", "A009", day(2025, 4, 20), "1625", "1500", 2, 12),
		installment("tx-new-1", "carla@example.com", "A009", day(2025, 3, 20), "1625", "1500", 1, 12),
	}

	result := d.Attribute(table, window)
	assert.True(t, dec("19500").Equal(result.Gross))
	assert.Equal(t, 1, result.FirstSales)
	assert.Equal(t, 1, result.Installments)
	assert.Equal(t, 1, result.UnknownKeys)

	require.Len(t, result.Lines, 2)
	for _, line := range result.Lines {
		assert.Equal(t, line.TransactionID == "tx-new-1", line.IsFirst)
	}
}

func TestAttribute_CountsIssuesAndPriceMisses(t *testing.T) {
	d := newTestDeduplicator(t)

	txs := []*domain.Transaction{
		installment("tx-1", "dani@example.com", "Consórcio Imóvel", day(2025, 1, 1), "2500", "2400", 1, 1),
		installment("tx-2", "eva@example.com", "A001", day(2025, 1, 2), "497", "460", 1, 1),
		{ID: "tx-3", ProductName: "A001", SaleDate: day(2025, 1, 3)},
	}
	table, _ := d.Deduplicate(txs)

	result := d.Attribute(table, txs)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "tx-3", result.Issues[0].TransactionID)
	assert.Equal(t, 1, result.ReferencePriceMisses)
	assert.True(t, dec("2997").Equal(result.Gross), "got %s", result.Gross)
	assert.True(t, dec("2860").Equal(result.Net))
	assert.Len(t, result.Lines, 2)
}

func TestAttribute_ShortPhoneIsSkipped(t *testing.T) {
	d := newTestDeduplicator(t)

	short := &domain.Transaction{ID: "tx-short", CustomerPhone: "323-1010", ProductName: "A001", SaleDate: day(2025, 1, 4)}
	result := d.Attribute(domain.NewFirstSaleTable(nil, day(2025, 1, 5), 0, 0), []*domain.Transaction{short})

	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, result.Lines)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "tx-short", result.Issues[0].TransactionID)
	assert.True(t, domain.IsDataIntegrityError(result.Issues[0].Err))
}

func TestAttribute_EmptyInput(t *testing.T) {
	d := newTestDeduplicator(t)
	table, _ := d.Deduplicate(nil)

	result := d.Attribute(table, nil)
	assert.True(t, result.Gross.IsZero())
	assert.True(t, result.Net.IsZero())
	assert.Empty(t, result.Lines)
	assert.Empty(t, result.Issues)
}
