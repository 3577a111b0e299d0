package commission

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
	serviceports "github.com/emilydias-boop/mcf-insight-hub/internal/services/ports"
)

// commissionService implements the CommissionService port
type commissionService struct {
	schedule *domain.CommissionSchedule
	validate *validator.Validate
	logger   *zap.Logger
}

// NewCommissionService creates a new commission service over a validated schedule
func NewCommissionService(schedule *domain.CommissionSchedule, logger *zap.Logger) serviceports.CommissionService {
	return &commissionService{
		schedule: schedule,
		validate: validator.New(),
		logger:   logger,
	}
}

// Summarize returns total, received and pending commission of one contract
func (s *commissionService) Summarize(ctx context.Context, req *serviceports.CommissionSummaryRequest) (*domain.CommissionSummary, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeValidationFailed, "invalid request", err)
	}
	if err := s.checkInput(req.ProductType, req.CreditValue); err != nil {
		return nil, err
	}

	summary, err := s.schedule.Summarize(req.ProductType, req.CreditValue, req.PaidInstallments)
	if err != nil {
		return nil, err
	}

	if ignored := len(req.PaidInstallments) - len(summary.PaidCounted); ignored > 0 {
		s.logger.Debug("Paid installments outside horizon or repeated",
			zap.String("product_type", string(req.ProductType)),
			zap.Int("horizon", summary.Horizon),
			zap.Int("ignored", ignored),
		)
	}

	return summary, nil
}

// Breakdown returns the commission of every installment in the horizon
func (s *commissionService) Breakdown(ctx context.Context, productType domain.ProductType, creditValue decimal.Decimal) ([]domain.InstallmentCommission, error) {
	if err := s.checkInput(productType, creditValue); err != nil {
		return nil, err
	}
	return s.schedule.Breakdown(productType, creditValue)
}

// checkInput rejects negative credit and product types the schedule lacks
func (s *commissionService) checkInput(productType domain.ProductType, creditValue decimal.Decimal) error {
	if creditValue.IsNegative() {
		return domain.NewDomainError(domain.ErrorCodeValidationAmountInvalid, "credit value cannot be negative").
			WithDetail("credit_value", creditValue.String())
	}
	for _, known := range s.schedule.ProductTypes() {
		if known == productType {
			return nil
		}
	}
	return domain.NewValidationError("unknown product type %q", productType).
		WithDetail("product_type", string(productType))
}
