package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
)

// CreatePayoutRequest contains parameters for opening a draft payout
type CreatePayoutRequest struct {
	BaseFixed    decimal.Decimal `json:"base_fixed"`
	BaseVariable decimal.Decimal `json:"base_variable"`
	AchievedPct  decimal.Decimal `json:"achieved_pct"`
	PersonID     string          `json:"person_id" validate:"required,max=64"`
	PeriodKey    string          `json:"period_key" validate:"required,len=7"`
	LadderName   string          `json:"ladder_name" validate:"required"`
}

// RecalculatePayoutRequest re-resolves the multiplier of a draft payout.
// ExpectedVersion 0 skips the client-side version check.
type RecalculatePayoutRequest struct {
	AchievedPct     decimal.Decimal `json:"achieved_pct"`
	PayoutID        string          `json:"-" validate:"required"`
	ExpectedVersion int64           `json:"expected_version" validate:"gte=0"`
}

// AddAdjustmentRequest contains parameters for a ledger entry.
// Amount is the magnitude; Kind decides the sign.
type AddAdjustmentRequest struct {
	Amount    decimal.Decimal       `json:"amount"`
	PayoutID  string                `json:"-" validate:"required"`
	Kind      domain.AdjustmentKind `json:"kind" validate:"required,oneof=bonus discount"`
	Reason    string                `json:"reason" validate:"required,max=500"`
	CreatedBy string                `json:"-" validate:"required"`
}

// PayoutService defines the port for payout lifecycle operations
type PayoutService interface {
	// CreateDraft resolves the multiplier and persists a draft payout
	CreateDraft(ctx context.Context, req *CreatePayoutRequest) (*domain.Payout, error)

	// Recalculate updates achievement and multiplier of a draft payout
	Recalculate(ctx context.Context, req *RecalculatePayoutRequest) (*domain.Payout, error)

	// AddAdjustment appends a bonus or discount to a draft or approved payout
	AddAdjustment(ctx context.Context, req *AddAdjustmentRequest) (*domain.Payout, error)

	// Approve moves a draft payout to approved
	Approve(ctx context.Context, payoutID, approverID string) (*domain.Payout, error)

	// Lock closes an approved payout
	Lock(ctx context.Context, payoutID string) (*domain.Payout, error)

	// Get retrieves a payout with its adjustments
	Get(ctx context.Context, payoutID string) (*domain.Payout, error)

	// ListByPeriod lists payouts for a YYYY-MM period
	ListByPeriod(ctx context.Context, periodKey string) ([]*domain.Payout, error)
}
