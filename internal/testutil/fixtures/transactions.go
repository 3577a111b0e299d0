package fixtures

import (
	"time"

	"github.com/google/uuid"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
)

// TransactionBuilder provides fluent API for building test transactions.
type TransactionBuilder struct {
	transaction *domain.Transaction
}

// NewTransaction creates a new transaction builder with sensible defaults:
// a single-payment A001 sale to a customer identified by email.
func NewTransaction() *TransactionBuilder {
	return &TransactionBuilder{
		transaction: &domain.Transaction{
			ID:                uuid.New().String(),
			CustomerEmail:     "cliente@example.com",
			ProductName:       "A001 - Curso",
			SaleDate:          time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC),
			GrossAmount:       Dec("497"),
			NetAmount:         Dec("450"),
			InstallmentIndex:  1,
			TotalInstallments: 1,
			SourceChannel:     domain.SourceChannelHubla,
		},
	}
}

func (b *TransactionBuilder) WithID(id string) *TransactionBuilder {
	b.transaction.ID = id
	return b
}

func (b *TransactionBuilder) WithEmail(email string) *TransactionBuilder {
	b.transaction.CustomerEmail = email
	return b
}

func (b *TransactionBuilder) WithPhone(phone string) *TransactionBuilder {
	b.transaction.CustomerEmail = ""
	b.transaction.CustomerPhone = phone
	return b
}

func (b *TransactionBuilder) WithProduct(name string) *TransactionBuilder {
	b.transaction.ProductName = name
	return b
}

func (b *TransactionBuilder) WithSaleDate(t time.Time) *TransactionBuilder {
	b.transaction.SaleDate = t
	return b
}

func (b *TransactionBuilder) WithAmounts(gross, net string) *TransactionBuilder {
	b.transaction.GrossAmount = Dec(gross)
	b.transaction.NetAmount = Dec(net)
	return b
}

func (b *TransactionBuilder) WithGrossOverride(amount string) *TransactionBuilder {
	b.transaction.GrossOverride = DecPtr(amount)
	return b
}

func (b *TransactionBuilder) WithInstallment(index, total int) *TransactionBuilder {
	b.transaction.InstallmentIndex = index
	b.transaction.TotalInstallments = total
	return b
}

func (b *TransactionBuilder) WithSource(source domain.SourceChannel) *TransactionBuilder {
	b.transaction.SourceChannel = source
	return b
}

// Build returns the transaction
func (b *TransactionBuilder) Build() *domain.Transaction {
	return b.transaction
}

// InstallmentSeries builds total monthly installments of one sale, the first
// dated at start.
func InstallmentSeries(idPrefix, email, product string, start time.Time, total int, gross, net string) []*domain.Transaction {
	out := make([]*domain.Transaction, total)
	for i := 0; i < total; i++ {
		out[i] = NewTransaction().
			WithID(idPrefix + "-" + string(rune('a'+i))).
			WithEmail(email).
			WithProduct(product).
			WithSaleDate(start.AddDate(0, i, 0)).
			WithAmounts(gross, net).
			WithInstallment(i+1, total).
			Build()
	}
	return out
}
