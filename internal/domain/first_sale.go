package domain

import (
	"encoding/json"
	"sort"
	"time"
)

// FirstSaleEntry records which transaction opened a customer-product sale
type FirstSaleEntry struct {
	Key           CustomerProductKey `json:"key"`
	TransactionID string             `json:"transaction_id"`
}

// FirstSaleTable is the materialized lookup built from the full transaction
// history: for every CustomerProductKey, the id of its first transaction.
// A table is read-only once built.
type FirstSaleTable struct {
	BuiltAt          time.Time
	firsts           map[CustomerProductKey]string
	TransactionCount int // Records scanned to build the table
	SkippedCount     int // Records excluded for data-integrity issues
}

// NewFirstSaleTable wraps a key→transaction-id mapping
func NewFirstSaleTable(firsts map[CustomerProductKey]string, builtAt time.Time, scanned, skipped int) *FirstSaleTable {
	copied := make(map[CustomerProductKey]string, len(firsts))
	for k, v := range firsts {
		copied[k] = v
	}
	return &FirstSaleTable{
		BuiltAt:          builtAt,
		firsts:           copied,
		TransactionCount: scanned,
		SkippedCount:     skipped,
	}
}

// First returns the id of the first transaction for key
func (t *FirstSaleTable) First(key CustomerProductKey) (string, bool) {
	id, ok := t.firsts[key]
	return id, ok
}

// IsFirst reports whether transactionID opened the sale identified by key
func (t *FirstSaleTable) IsFirst(key CustomerProductKey, transactionID string) bool {
	id, ok := t.firsts[key]
	return ok && id == transactionID
}

// Len returns the number of distinct customer-product sales
func (t *FirstSaleTable) Len() int {
	return len(t.firsts)
}

// Entries returns the table sorted by key, suitable for stable serialization
func (t *FirstSaleTable) Entries() []FirstSaleEntry {
	out := make([]FirstSaleEntry, 0, len(t.firsts))
	for k, id := range t.firsts {
		out = append(out, FirstSaleEntry{Key: k, TransactionID: id})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Customer != out[j].Key.Customer {
			return out[i].Key.Customer < out[j].Key.Customer
		}
		return out[i].Key.Product < out[j].Key.Product
	})
	return out
}

// Equal reports whether two tables hold the same mapping
func (t *FirstSaleTable) Equal(other *FirstSaleTable) bool {
	if t == nil || other == nil {
		return t == other
	}
	if len(t.firsts) != len(other.firsts) {
		return false
	}
	for k, id := range t.firsts {
		if other.firsts[k] != id {
			return false
		}
	}
	return true
}

type firstSaleTableJSON struct {
	BuiltAt          time.Time        `json:"built_at"`
	Entries          []FirstSaleEntry `json:"entries"`
	TransactionCount int              `json:"transaction_count"`
	SkippedCount     int              `json:"skipped_count"`
}

// MarshalJSON encodes the table as a sorted entry list
func (t *FirstSaleTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(firstSaleTableJSON{
		BuiltAt:          t.BuiltAt,
		Entries:          t.Entries(),
		TransactionCount: t.TransactionCount,
		SkippedCount:     t.SkippedCount,
	})
}

// UnmarshalJSON decodes a table written by MarshalJSON
func (t *FirstSaleTable) UnmarshalJSON(data []byte) error {
	var raw firstSaleTableJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.BuiltAt = raw.BuiltAt
	t.TransactionCount = raw.TransactionCount
	t.SkippedCount = raw.SkippedCount
	t.firsts = make(map[CustomerProductKey]string, len(raw.Entries))
	for _, e := range raw.Entries {
		t.firsts[e.Key] = e.TransactionID
	}
	return nil
}
