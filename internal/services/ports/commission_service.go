package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
)

// CommissionSummaryRequest asks for received/pending commission of one contract
type CommissionSummaryRequest struct {
	CreditValue      decimal.Decimal    `json:"credit_value"`
	ProductType      domain.ProductType `json:"product_type" validate:"required"`
	PaidInstallments []int              `json:"paid_installments" validate:"dive,gte=1"`
}

// CommissionService defines the port for installment commission queries
type CommissionService interface {
	// Summarize returns total, received and pending commission
	Summarize(ctx context.Context, req *CommissionSummaryRequest) (*domain.CommissionSummary, error)

	// Breakdown returns the commission of every installment in the horizon
	Breakdown(ctx context.Context, productType domain.ProductType, creditValue decimal.Decimal) ([]domain.InstallmentCommission, error)
}
