package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// First-sale table refresh metrics
	firstSaleRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "first_sale_refresh_total",
		Help: "Total first-sale table rebuilds",
	}, []string{
		"trigger", // ticker, cron, on_demand
		"status",  // success, failed
	})

	firstSaleRefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "first_sale_refresh_duration_seconds",
		Help: "Time to rebuild the first-sale table from full history",
		// Buckets: 100ms to 5m (full history scans)
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
	})

	firstSaleTableSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "first_sale_table_keys",
		Help: "Distinct customer-product sales in the current first-sale table",
	})

	firstSaleScanned = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "first_sale_table_scanned_transactions",
		Help: "Transactions scanned by the last successful rebuild",
	})

	firstSaleSkipped = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "first_sale_table_skipped_transactions",
		Help: "Transactions excluded from the last rebuild for data-integrity issues",
	})

	firstSaleStoreLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "first_sale_store_lookups_total",
		Help: "Loads of the materialized first-sale table",
	}, []string{"result"}) // hit, miss, error

	// Attribution (gross revenue report) metrics
	attributionSkippedRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attribution_skipped_records_total",
		Help: "Records excluded from gross attribution",
	}, []string{"report"})

	attributionReferencePriceMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attribution_reference_price_misses_total",
		Help: "First sales attributed at paid amount because no reference price is configured",
	}, []string{"report"})

	// Payout lifecycle metrics
	payoutTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payout_transitions_total",
		Help: "Payout lifecycle transitions",
	}, []string{
		"to",     // draft, approved, locked
		"status", // success, rejected
	})

	payoutAdjustmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payout_adjustments_total",
		Help: "Adjustment ledger entries appended",
	}, []string{"kind"}) // bonus, discount

	payoutVersionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payout_version_conflicts_total",
		Help: "Concurrent payout edits rejected by optimistic locking",
	})
)

// RecordFirstSaleRefresh records one rebuild attempt
func RecordFirstSaleRefresh(trigger, status string, durationSeconds float64) {
	firstSaleRefreshTotal.WithLabelValues(trigger, status).Inc()
	if status == "success" {
		firstSaleRefreshDuration.Observe(durationSeconds)
	}
}

// UpdateFirstSaleTable publishes the shape of the current table
func UpdateFirstSaleTable(keys, scanned, skipped int) {
	firstSaleTableSize.Set(float64(keys))
	firstSaleScanned.Set(float64(scanned))
	firstSaleSkipped.Set(float64(skipped))
}

// RecordFirstSaleStoreLookup records a table load outcome
func RecordFirstSaleStoreLookup(result string) {
	firstSaleStoreLookups.WithLabelValues(result).Inc()
}

// RecordAttribution records the per-report data quality counters
func RecordAttribution(report string, skipped, referencePriceMisses int) {
	if skipped > 0 {
		attributionSkippedRecords.WithLabelValues(report).Add(float64(skipped))
	}
	if referencePriceMisses > 0 {
		attributionReferencePriceMisses.WithLabelValues(report).Add(float64(referencePriceMisses))
	}
}

// RecordPayoutTransition records a lifecycle change attempt
func RecordPayoutTransition(to, status string) {
	payoutTransitionsTotal.WithLabelValues(to, status).Inc()
}

// RecordPayoutAdjustment records an appended ledger entry
func RecordPayoutAdjustment(kind string) {
	payoutAdjustmentsTotal.WithLabelValues(kind).Inc()
}

// RecordPayoutVersionConflict records a rejected concurrent edit
func RecordPayoutVersionConflict() {
	payoutVersionConflicts.Inc()
}
