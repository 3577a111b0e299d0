package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTransaction_Validate(t *testing.T) {
	saleDate := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		tx      Transaction
		wantErr bool
	}{
		{
			name: "single payment",
			tx:   Transaction{ID: "tx-1", SaleDate: saleDate, GrossAmount: dec("497")},
		},
		{
			name: "last installment",
			tx:   Transaction{ID: "tx-2", SaleDate: saleDate, InstallmentIndex: 12, TotalInstallments: 12},
		},
		{
			name:    "missing id",
			tx:      Transaction{SaleDate: saleDate},
			wantErr: true,
		},
		{
			name:    "missing sale date",
			tx:      Transaction{ID: "tx-3"},
			wantErr: true,
		},
		{
			name:    "installment past total",
			tx:      Transaction{ID: "tx-4", SaleDate: saleDate, InstallmentIndex: 4, TotalInstallments: 3},
			wantErr: true,
		},
		{
			name:    "negative installment",
			tx:      Transaction{ID: "tx-5", SaleDate: saleDate, InstallmentIndex: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()
			if tt.wantErr {
				assert.True(t, IsDataIntegrityError(err), "expected data integrity error, got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTransaction_Helpers(t *testing.T) {
	tx := Transaction{ID: "tx-1", InstallmentIndex: 1, TotalInstallments: 3}
	assert.True(t, tx.IsInstallment())
	assert.False(t, tx.HasGrossOverride())

	tx.GrossOverride = decPtr("350")
	assert.True(t, tx.HasGrossOverride())

	single := Transaction{ID: "tx-2", TotalInstallments: 1}
	assert.False(t, single.IsInstallment())
}

func TestCustomerProductKey(t *testing.T) {
	key := CustomerProductKey{Customer: "ana@example.com", Product: "A001"}
	assert.Equal(t, "ana@example.com|A001", key.String())
	assert.False(t, key.IsZero())

	assert.True(t, CustomerProductKey{Product: "A001"}.IsZero())
	assert.True(t, CustomerProductKey{Customer: "ana@example.com"}.IsZero())
}
