package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ProductType identifies a commission schedule (e.g. a consortium product line)
type ProductType string

// CommissionScheduleEntry is one row of a commission schedule: the percentage of
// the credit value owed when installment InstallmentIndex is paid.
type CommissionScheduleEntry struct {
	ProductType      ProductType     `json:"product_type"`
	InstallmentIndex int             `json:"installment_index"`
	Percentage       decimal.Decimal `json:"percentage"`
}

// CommissionSchedule holds per-product-type installment percentages.
// Installments past a product type's horizon earn nothing.
type CommissionSchedule struct {
	// percentages[pt][i] is the percentage for installment i+1
	percentages map[ProductType][]decimal.Decimal
}

// CommissionSummary splits the commission owed on a credit into what was
// already earned through paid installments and what is still pending.
type CommissionSummary struct {
	ProductType ProductType     `json:"product_type"`
	CreditValue decimal.Decimal `json:"credit_value"`
	Horizon     int             `json:"horizon"`
	Total       decimal.Decimal `json:"total"`
	Received    decimal.Decimal `json:"received"`
	Pending     decimal.Decimal `json:"pending"`
	// PaidCounted lists the installment indexes that contributed to Received
	PaidCounted []int `json:"paid_counted"`
}

// InstallmentCommission is one line of a commission breakdown
type InstallmentCommission struct {
	InstallmentIndex int             `json:"installment_index"`
	Percentage       decimal.Decimal `json:"percentage"`
	Amount           decimal.Decimal `json:"amount"`
}

// NewCommissionSchedule validates entries and builds a schedule.
// Every product type must define installments 1..horizon exactly once, with
// percentages between 0 and 100.
func NewCommissionSchedule(entries []CommissionScheduleEntry) (*CommissionSchedule, error) {
	if len(entries) == 0 {
		return nil, NewConfigurationError("commission schedule has no entries")
	}

	byType := make(map[ProductType]map[int]decimal.Decimal)
	for _, e := range entries {
		if e.ProductType == "" {
			return nil, NewConfigurationError("commission schedule entry without product type")
		}
		if e.InstallmentIndex < 1 {
			return nil, NewConfigurationError("product type %q: installment index %d must be >= 1", e.ProductType, e.InstallmentIndex).
				WithDetail("product_type", string(e.ProductType))
		}
		if e.Percentage.IsNegative() || e.Percentage.GreaterThan(hundred) {
			return nil, NewConfigurationError("product type %q installment %d: percentage %s outside [0, 100]",
				e.ProductType, e.InstallmentIndex, e.Percentage).WithDetail("product_type", string(e.ProductType))
		}

		rows, ok := byType[e.ProductType]
		if !ok {
			rows = make(map[int]decimal.Decimal)
			byType[e.ProductType] = rows
		}
		if _, dup := rows[e.InstallmentIndex]; dup {
			return nil, NewConfigurationError("product type %q: installment %d defined twice", e.ProductType, e.InstallmentIndex).
				WithDetail("product_type", string(e.ProductType))
		}
		rows[e.InstallmentIndex] = e.Percentage
	}

	schedule := &CommissionSchedule{percentages: make(map[ProductType][]decimal.Decimal, len(byType))}
	for pt, rows := range byType {
		horizon := len(rows)
		pcts := make([]decimal.Decimal, horizon)
		for i := 1; i <= horizon; i++ {
			pct, ok := rows[i]
			if !ok {
				return nil, NewConfigurationError("product type %q: installment %d missing below horizon", pt, i).
					WithDetail("product_type", string(pt))
			}
			pcts[i-1] = pct
		}
		schedule.percentages[pt] = pcts
	}

	return schedule, nil
}

// ProductTypes returns the configured product types in sorted order
func (s *CommissionSchedule) ProductTypes() []ProductType {
	out := make([]ProductType, 0, len(s.percentages))
	for pt := range s.percentages {
		out = append(out, pt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Horizon returns the last installment index that still earns commission
func (s *CommissionSchedule) Horizon(productType ProductType) (int, error) {
	pcts, err := s.lookup(productType)
	if err != nil {
		return 0, err
	}
	return len(pcts), nil
}

// Percentage returns the commission percentage for an installment.
// Indexes outside [1, horizon] yield zero.
func (s *CommissionSchedule) Percentage(productType ProductType, installmentIndex int) (decimal.Decimal, error) {
	pcts, err := s.lookup(productType)
	if err != nil {
		return decimal.Zero, err
	}
	if installmentIndex < 1 || installmentIndex > len(pcts) {
		return decimal.Zero, nil
	}
	return pcts[installmentIndex-1], nil
}

// CommissionFor returns creditValue * percentage / 100 for one installment
func (s *CommissionSchedule) CommissionFor(productType ProductType, installmentIndex int, creditValue decimal.Decimal) (decimal.Decimal, error) {
	pct, err := s.Percentage(productType, installmentIndex)
	if err != nil {
		return decimal.Zero, err
	}
	return creditValue.Mul(pct).Div(hundred), nil
}

// TotalCommission sums CommissionFor over installments 1..horizon
func (s *CommissionSchedule) TotalCommission(productType ProductType, creditValue decimal.Decimal) (decimal.Decimal, error) {
	lines, err := s.Breakdown(productType, creditValue)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Amount)
	}
	return total, nil
}

// Breakdown lists the commission owed for each installment up to the horizon
func (s *CommissionSchedule) Breakdown(productType ProductType, creditValue decimal.Decimal) ([]InstallmentCommission, error) {
	pcts, err := s.lookup(productType)
	if err != nil {
		return nil, err
	}
	lines := make([]InstallmentCommission, len(pcts))
	for i, pct := range pcts {
		lines[i] = InstallmentCommission{
			InstallmentIndex: i + 1,
			Percentage:       pct,
			Amount:           creditValue.Mul(pct).Div(hundred),
		}
	}
	return lines, nil
}

// Summarize computes total, received and pending commission for a credit.
// Paid installments outside [1, horizon] and repeated indexes add nothing, so
// Received never exceeds Total and Received + Pending == Total.
func (s *CommissionSchedule) Summarize(productType ProductType, creditValue decimal.Decimal, paidInstallments []int) (*CommissionSummary, error) {
	horizon, err := s.Horizon(productType)
	if err != nil {
		return nil, err
	}
	total, err := s.TotalCommission(productType, creditValue)
	if err != nil {
		return nil, err
	}

	received := decimal.Zero
	counted := make([]int, 0, len(paidInstallments))
	seen := make(map[int]struct{}, len(paidInstallments))
	for _, idx := range paidInstallments {
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}

		amount, err := s.CommissionFor(productType, idx, creditValue)
		if err != nil {
			return nil, err
		}
		if idx >= 1 && idx <= horizon {
			counted = append(counted, idx)
		}
		received = received.Add(amount)
	}
	sort.Ints(counted)

	return &CommissionSummary{
		ProductType: productType,
		CreditValue: creditValue,
		Horizon:     horizon,
		Total:       total,
		Received:    received,
		Pending:     total.Sub(received),
		PaidCounted: counted,
	}, nil
}

func (s *CommissionSchedule) lookup(productType ProductType) ([]decimal.Decimal, error) {
	pcts, ok := s.percentages[productType]
	if !ok {
		return nil, NewConfigurationError("no commission schedule for product type %q", productType).
			WithDetail("product_type", string(productType))
	}
	return pcts, nil
}
