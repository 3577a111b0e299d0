package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceChannel identifies the system a payment record came from
type SourceChannel string

const (
	SourceChannelHubla     SourceChannel = "hubla"
	SourceChannelKiwify    SourceChannel = "kiwify"
	SourceChannelAsaas     SourceChannel = "asaas"
	SourceChannelManual    SourceChannel = "manual"
	SourceChannelContracts SourceChannel = "contracts"
)

// Transaction is one payment event as received from a source channel.
// Records are immutable; corrections arrive as new records or as GrossOverride.
type Transaction struct {
	SaleDate      time.Time        `json:"sale_date"`
	GrossAmount   decimal.Decimal  `json:"gross_amount"`
	NetAmount     decimal.Decimal  `json:"net_amount"`
	GrossOverride *decimal.Decimal `json:"gross_override,omitempty"` // Manually corrected price; always wins
	ID            string           `json:"id"`
	CustomerEmail string           `json:"customer_email,omitempty"`
	CustomerPhone string           `json:"customer_phone,omitempty"`
	ProductName   string           `json:"product_name"`
	SourceChannel SourceChannel    `json:"source_channel"`
	// 1-based; zero means the source did not report installments
	InstallmentIndex  int `json:"installment_index"`
	TotalInstallments int `json:"total_installments"`
}

// Validate checks the structural invariants of a transaction record.
// It does not check whether the record can be normalized into a key.
func (t *Transaction) Validate() error {
	if t.ID == "" {
		return NewDataIntegrityError("transaction without id")
	}
	if t.SaleDate.IsZero() {
		return NewDataIntegrityError("transaction %s has no sale date", t.ID).
			WithDetail("transaction_id", t.ID)
	}
	if t.InstallmentIndex < 0 || t.TotalInstallments < 0 {
		return NewDataIntegrityError("transaction %s has negative installment numbers", t.ID).
			WithDetail("transaction_id", t.ID)
	}
	if t.TotalInstallments > 0 && t.InstallmentIndex > t.TotalInstallments {
		return NewDataIntegrityError("transaction %s: installment %d exceeds total %d",
			t.ID, t.InstallmentIndex, t.TotalInstallments).WithDetail("transaction_id", t.ID)
	}
	return nil
}

// HasGrossOverride returns true if a manual gross correction was recorded
func (t *Transaction) HasGrossOverride() bool {
	return t.GrossOverride != nil
}

// IsInstallment returns true if the record is one of several installments
func (t *Transaction) IsInstallment() bool {
	return t.TotalInstallments > 1
}

// CustomerProductKey groups the installments of one sale:
// normalized customer identity plus normalized product code.
type CustomerProductKey struct {
	Customer string `json:"customer"`
	Product  string `json:"product"`
}

// String renders the key as "customer|product", the form used by caches
func (k CustomerProductKey) String() string {
	return k.Customer + "|" + k.Product
}

// IsZero returns true if either side of the key is missing
func (k CustomerProductKey) IsZero() bool {
	return k.Customer == "" || k.Product == ""
}
