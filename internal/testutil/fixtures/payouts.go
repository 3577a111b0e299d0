package fixtures

import (
	"time"

	"github.com/google/uuid"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
)

// StandardTiers is the three-tier ladder used across tests:
// [0,70) → 0.5, [70,100) → 1.0, [100,∞) → 1.5
func StandardTiers() []domain.MultiplierTier {
	return []domain.MultiplierTier{
		{RangeStart: Dec("0"), RangeEnd: DecPtr("70"), Multiplier: Dec("0.5")},
		{RangeStart: Dec("70"), RangeEnd: DecPtr("100"), Multiplier: Dec("1.0")},
		{RangeStart: Dec("100"), Multiplier: Dec("1.5")},
	}
}

// StandardLadder returns StandardTiers as a validated ladder named name
func StandardLadder(name string) *domain.TierLadder {
	ladder, err := domain.NewTierLadder(name, StandardTiers())
	if err != nil {
		panic(err)
	}
	return ladder
}

// PayoutBuilder provides fluent API for building test payouts.
type PayoutBuilder struct {
	payout *domain.Payout
}

// NewPayout creates a draft payout: fixed 2000, variable 1000 at 80% (1.0x).
func NewPayout() *PayoutBuilder {
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	p := &domain.Payout{
		ID:            uuid.New().String(),
		PersonID:      "sdr-001",
		PeriodKey:     "2025-03",
		BaseFixed:     Dec("2000"),
		BaseVariable:  Dec("1000"),
		AchievedPct:   Dec("80"),
		Multiplier:    Dec("1.0"),
		VariableFinal: Dec("1000"),
		LadderName:    "sdr",
		Status:        domain.PayoutStatusDraft,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	p.Recompute()
	return &PayoutBuilder{payout: p}
}

func (b *PayoutBuilder) WithID(id string) *PayoutBuilder {
	b.payout.ID = id
	for i := range b.payout.Adjustments {
		b.payout.Adjustments[i].PayoutID = id
	}
	return b
}

func (b *PayoutBuilder) WithPerson(personID, periodKey string) *PayoutBuilder {
	b.payout.PersonID = personID
	b.payout.PeriodKey = periodKey
	return b
}

func (b *PayoutBuilder) WithStatus(status domain.PayoutStatus) *PayoutBuilder {
	b.payout.Status = status
	if status != domain.PayoutStatusDraft && b.payout.ApprovedBy == nil {
		b.payout.ApprovedBy = StringPtr("director-001")
		b.payout.ApprovedAt = TimePtr(b.payout.UpdatedAt)
	}
	return b
}

func (b *PayoutBuilder) WithVersion(version int64) *PayoutBuilder {
	b.payout.Version = version
	return b
}

func (b *PayoutBuilder) WithAdjustment(kind domain.AdjustmentKind, amount string) *PayoutBuilder {
	adj, err := domain.NewAdjustment(uuid.New().String(), b.payout.ID, kind, Dec(amount), "fixture adjustment", "manager-001")
	if err != nil {
		panic(err)
	}
	b.payout.Adjustments = append(b.payout.Adjustments, *adj)
	b.payout.Recompute()
	return b
}

// Build returns the payout
func (b *PayoutBuilder) Build() *domain.Payout {
	return b.payout
}
