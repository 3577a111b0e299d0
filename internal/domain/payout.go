package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/emilydias-boop/mcf-insight-hub/pkg/timeutil"
)

// PayoutStatus represents the payout lifecycle state
type PayoutStatus string

const (
	PayoutStatusDraft    PayoutStatus = "draft"
	PayoutStatusApproved PayoutStatus = "approved"
	PayoutStatusLocked   PayoutStatus = "locked"
)

// IsValid returns true for a known status
func (s PayoutStatus) IsValid() bool {
	switch s {
	case PayoutStatusDraft, PayoutStatusApproved, PayoutStatusLocked:
		return true
	}
	return false
}

// Stored scales of payout amounts
const (
	// MoneyScale is the number of decimal places kept for currency amounts
	MoneyScale = 2
	// RateScale is the number of decimal places kept for percentages and multipliers
	RateScale = 4
)

// RoundMoney rounds d half away from zero to whole cents
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// AdjustmentKind represents a manual correction type
type AdjustmentKind string

const (
	AdjustmentKindBonus    AdjustmentKind = "bonus"
	AdjustmentKindDiscount AdjustmentKind = "discount"
)

// PayoutAdjustment is an immutable manual line item on a payout.
// Amount is signed: discounts are stored negative.
type PayoutAdjustment struct {
	CreatedAt time.Time       `json:"created_at"`
	Amount    decimal.Decimal `json:"amount"`
	ID        string          `json:"id"`
	PayoutID  string          `json:"payout_id"`
	Kind      AdjustmentKind  `json:"kind"`
	Reason    string          `json:"reason"`
	CreatedBy string          `json:"created_by"`
}

// NewAdjustment builds a ledger entry from a positive magnitude.
// The sign is derived from kind, so callers never pass negative amounts.
// The magnitude is rounded to cents and must stay positive after rounding.
func NewAdjustment(id, payoutID string, kind AdjustmentKind, magnitude decimal.Decimal, reason, createdBy string) (*PayoutAdjustment, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, NewDomainError(ErrorCodeValidationMissingField, "adjustment reason is required").
			WithDetail("field", "reason")
	}
	if !RoundMoney(magnitude).IsPositive() {
		return nil, NewDomainError(ErrorCodeValidationAmountInvalid, "adjustment amount must be at least 0.01").
			WithDetail("amount", magnitude.String())
	}
	magnitude = RoundMoney(magnitude)

	amount := magnitude
	switch kind {
	case AdjustmentKindBonus:
	case AdjustmentKindDiscount:
		amount = magnitude.Neg()
	default:
		return nil, NewValidationError("unknown adjustment kind %q", kind).WithDetail("field", "kind")
	}

	return &PayoutAdjustment{
		ID:        id,
		PayoutID:  payoutID,
		Kind:      kind,
		Amount:    amount,
		Reason:    reason,
		CreatedBy: createdBy,
		CreatedAt: timeutil.Now(),
	}, nil
}

// Validate checks the ledger invariants of an entry built outside
// NewAdjustment: a reason, whole cents and a sign matching the kind
func (a *PayoutAdjustment) Validate() error {
	if strings.TrimSpace(a.Reason) == "" {
		return NewDomainError(ErrorCodeValidationMissingField, "adjustment reason is required").
			WithDetail("field", "reason")
	}
	if !a.Amount.Equal(RoundMoney(a.Amount)) {
		return NewDomainError(ErrorCodeValidationAmountInvalid, "adjustment amount must be in whole cents").
			WithDetail("amount", a.Amount.String())
	}
	switch a.Kind {
	case AdjustmentKindBonus:
		if !a.Amount.IsPositive() {
			return NewDomainError(ErrorCodeValidationAmountInvalid, "bonus amount must be positive").
				WithDetail("amount", a.Amount.String())
		}
	case AdjustmentKindDiscount:
		if !a.Amount.IsNegative() {
			return NewDomainError(ErrorCodeValidationAmountInvalid, "discount amount must be negative").
				WithDetail("amount", a.Amount.String())
		}
	default:
		return NewValidationError("unknown adjustment kind %q", a.Kind).WithDetail("field", "kind")
	}
	return nil
}

// Payout is the computed compensation of one person for one period
type Payout struct {
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	ApprovedAt    *time.Time         `json:"approved_at,omitempty"`
	ApprovedBy    *string            `json:"approved_by,omitempty"`
	BaseFixed     decimal.Decimal    `json:"base_fixed"`
	BaseVariable  decimal.Decimal    `json:"base_variable"`
	AchievedPct   decimal.Decimal    `json:"achieved_pct"`
	Multiplier    decimal.Decimal    `json:"multiplier"`
	VariableFinal decimal.Decimal    `json:"variable_final"`
	TotalPayable  decimal.Decimal    `json:"total_payable"`
	Adjustments   []PayoutAdjustment `json:"adjustments"`
	ID            string             `json:"id"`
	PersonID      string             `json:"person_id"`
	PeriodKey     string             `json:"period_key"`
	LadderName    string             `json:"ladder_name"`
	Status        PayoutStatus       `json:"status"`
	Version       int64              `json:"version"` // Optimistic lock, bumped by the repository
}

// NewPayout creates a draft payout, resolving the multiplier from ladder
func NewPayout(id, personID, periodKey string, baseFixed, baseVariable, achievedPct decimal.Decimal, ladder *TierLadder) (*Payout, error) {
	if personID == "" {
		return nil, NewDomainError(ErrorCodeValidationMissingField, "person id is required").
			WithDetail("field", "person_id")
	}
	if err := timeutil.ValidatePeriodKey(periodKey); err != nil {
		return nil, WrapError(ErrorCodeValidationFailed, "invalid period key", err).
			WithDetail("field", "period_key")
	}
	if baseFixed.IsNegative() || baseVariable.IsNegative() {
		return nil, NewDomainError(ErrorCodeValidationAmountInvalid, "base pay cannot be negative")
	}

	now := timeutil.Now()
	p := &Payout{
		ID:           id,
		PersonID:     personID,
		PeriodKey:    periodKey,
		BaseFixed:    RoundMoney(baseFixed),
		BaseVariable: RoundMoney(baseVariable),
		Status:       PayoutStatusDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := p.applyAchievement(achievedPct, ladder); err != nil {
		return nil, err
	}
	return p, nil
}

// IsLocked returns true once the payout is closed for any change
func (p *Payout) IsLocked() bool {
	return p.Status == PayoutStatusLocked
}

// CanAdjust returns true if ledger entries may still be appended
func (p *Payout) CanAdjust() bool {
	return p.Status == PayoutStatusDraft || p.Status == PayoutStatusApproved
}

// AdjustmentsTotal sums the signed adjustment amounts
func (p *Payout) AdjustmentsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, adj := range p.Adjustments {
		sum = sum.Add(adj.Amount)
	}
	return sum
}

// Recompute sets TotalPayable = BaseFixed + VariableFinal + sum(Adjustments),
// rounded to cents
func (p *Payout) Recompute() {
	p.TotalPayable = RoundMoney(p.BaseFixed.Add(p.VariableFinal).Add(p.AdjustmentsTotal()))
}

// Recalculate re-resolves the multiplier for a new achievement. Draft only.
func (p *Payout) Recalculate(achievedPct decimal.Decimal, ladder *TierLadder) error {
	if p.Status != PayoutStatusDraft {
		return NewInvalidStateError("payout %s is %s; only draft payouts can be recalculated", p.ID, p.Status).
			WithDetail("payout_id", p.ID).
			WithDetail("status", string(p.Status))
	}
	if err := p.applyAchievement(achievedPct, ladder); err != nil {
		return err
	}
	p.UpdatedAt = timeutil.Now()
	return nil
}

// Approve moves a draft payout to approved
func (p *Payout) Approve(approverID string) error {
	if approverID == "" {
		return NewDomainError(ErrorCodeValidationMissingField, "approver is required").
			WithDetail("field", "approved_by")
	}
	if p.Status != PayoutStatusDraft {
		return NewInvalidStateError("payout %s is %s; only draft payouts can be approved", p.ID, p.Status).
			WithDetail("payout_id", p.ID).
			WithDetail("status", string(p.Status))
	}
	now := timeutil.Now()
	p.Status = PayoutStatusApproved
	p.ApprovedBy = &approverID
	p.ApprovedAt = &now
	p.UpdatedAt = now
	return nil
}

// Lock closes an approved payout
func (p *Payout) Lock() error {
	if p.Status != PayoutStatusApproved {
		return NewInvalidStateError("payout %s is %s; only approved payouts can be locked", p.ID, p.Status).
			WithDetail("payout_id", p.ID).
			WithDetail("status", string(p.Status))
	}
	p.Status = PayoutStatusLocked
	p.UpdatedAt = timeutil.Now()
	return nil
}

// Clone returns a deep copy so callers can mutate without touching the original
func (p *Payout) Clone() *Payout {
	c := *p
	if p.Adjustments != nil {
		c.Adjustments = make([]PayoutAdjustment, len(p.Adjustments))
		copy(c.Adjustments, p.Adjustments)
	}
	if p.ApprovedAt != nil {
		at := *p.ApprovedAt
		c.ApprovedAt = &at
	}
	if p.ApprovedBy != nil {
		by := *p.ApprovedBy
		c.ApprovedBy = &by
	}
	return &c
}

func (p *Payout) applyAchievement(achievedPct decimal.Decimal, ladder *TierLadder) error {
	if ladder == nil {
		return NewConfigurationError("payout %s: no tier ladder configured", p.ID)
	}
	// resolve the stored value so the persisted pct and multiplier agree
	achievedPct = achievedPct.Round(RateScale)
	multiplier, err := ladder.Resolve(achievedPct)
	if err != nil {
		return err
	}
	p.AchievedPct = achievedPct
	p.Multiplier = multiplier
	p.LadderName = ladder.Name()
	p.VariableFinal = RoundMoney(p.BaseVariable.Mul(multiplier))
	p.Recompute()
	return nil
}

// ApplyAdjustment appends adj to a copy of payout and recomputes the total.
// Locked payouts reject every adjustment; the input payout is not modified.
func ApplyAdjustment(payout *Payout, adj *PayoutAdjustment) (*Payout, error) {
	if payout == nil {
		return nil, NewValidationError("payout is required")
	}
	if adj == nil {
		return nil, NewDomainError(ErrorCodeValidationMissingField, "adjustment is required").
			WithDetail("field", "adjustment")
	}
	if payout.IsLocked() {
		return nil, NewInvalidStateError("payout %s is locked; adjustments are rejected", payout.ID).
			WithDetail("payout_id", payout.ID).
			WithDetail("status", string(payout.Status))
	}
	if !payout.CanAdjust() {
		return nil, NewInvalidStateError("payout %s has status %q", payout.ID, payout.Status).
			WithDetail("payout_id", payout.ID)
	}
	if adj.PayoutID != payout.ID {
		return nil, NewValidationError("adjustment %s belongs to payout %s, not %s", adj.ID, adj.PayoutID, payout.ID)
	}
	if err := adj.Validate(); err != nil {
		return nil, err
	}

	updated := payout.Clone()
	updated.Adjustments = append(updated.Adjustments, *adj)
	updated.Recompute()
	updated.UpdatedAt = timeutil.Now()
	return updated, nil
}
