package domain

import (
	"github.com/shopspring/decimal"
)

// MultiplierTier maps an achievement range (percent of goal) to a payout multiplier.
// RangeEnd is exclusive; a nil RangeEnd marks an open-ended tier.
type MultiplierTier struct {
	RangeStart decimal.Decimal  `json:"range_start"`
	RangeEnd   *decimal.Decimal `json:"range_end,omitempty"`
	Multiplier decimal.Decimal  `json:"multiplier"`
	// Terminal closes the ladder at RangeEnd: achievements at or above it
	// are rejected instead of inheriting this tier's multiplier.
	Terminal bool `json:"terminal,omitempty"`
}

// IsOpenEnded returns true if the tier has no upper bound
func (t MultiplierTier) IsOpenEnded() bool {
	return t.RangeEnd == nil
}

// contains reports whether pct falls inside [RangeStart, RangeEnd)
func (t MultiplierTier) contains(pct decimal.Decimal) bool {
	if pct.LessThan(t.RangeStart) {
		return false
	}
	return t.RangeEnd == nil || pct.LessThan(*t.RangeEnd)
}

// TierLadder is a validated, ordered set of multiplier tiers (a "régua").
// Build it with NewTierLadder; the zero value is not usable.
type TierLadder struct {
	name  string
	tiers []MultiplierTier
}

// NewTierLadder validates tiers and returns an immutable ladder.
//
// Rules:
//   - at least one tier
//   - RangeStart >= 0 and Multiplier >= 0
//   - tiers sorted ascending by RangeStart
//   - RangeEnd > RangeStart when present
//   - only the last tier may be open-ended or terminal
//   - each tier ends exactly where the next one starts (no gaps, no overlaps)
func NewTierLadder(name string, tiers []MultiplierTier) (*TierLadder, error) {
	if len(tiers) == 0 {
		return nil, NewConfigurationError("ladder %q has no tiers", name)
	}

	for i, tier := range tiers {
		last := i == len(tiers)-1

		if tier.RangeStart.IsNegative() {
			return nil, NewConfigurationError("ladder %q tier %d: range start %s is negative", name, i, tier.RangeStart).
				WithDetail("ladder", name)
		}
		if tier.Multiplier.IsNegative() {
			return nil, NewConfigurationError("ladder %q tier %d: multiplier %s is negative", name, i, tier.Multiplier).
				WithDetail("ladder", name)
		}
		if tier.RangeEnd != nil && !tier.RangeEnd.GreaterThan(tier.RangeStart) {
			return nil, NewConfigurationError("ladder %q tier %d: range end %s must be greater than start %s",
				name, i, tier.RangeEnd, tier.RangeStart).WithDetail("ladder", name)
		}
		if tier.Terminal && tier.RangeEnd == nil {
			return nil, NewConfigurationError("ladder %q tier %d: terminal tier needs a range end", name, i).
				WithDetail("ladder", name)
		}

		if last {
			continue
		}

		if tier.RangeEnd == nil {
			return nil, NewConfigurationError("ladder %q tier %d: only the last tier may be open-ended", name, i).
				WithDetail("ladder", name)
		}
		if tier.Terminal {
			return nil, NewConfigurationError("ladder %q tier %d: only the last tier may be terminal", name, i).
				WithDetail("ladder", name)
		}

		next := tiers[i+1]
		if !next.RangeStart.GreaterThan(tier.RangeStart) {
			return nil, NewConfigurationError("ladder %q tier %d: tiers must be sorted ascending by range start", name, i+1).
				WithDetail("ladder", name)
		}
		switch cmp := tier.RangeEnd.Cmp(next.RangeStart); {
		case cmp > 0:
			return nil, NewConfigurationError("ladder %q tier %d overlaps tier %d", name, i, i+1).
				WithDetail("ladder", name)
		case cmp < 0:
			return nil, NewConfigurationError("ladder %q has a gap between %s and %s", name, tier.RangeEnd, next.RangeStart).
				WithDetail("ladder", name)
		}
	}

	copied := make([]MultiplierTier, len(tiers))
	copy(copied, tiers)

	return &TierLadder{name: name, tiers: copied}, nil
}

// Name returns the ladder identifier
func (l *TierLadder) Name() string {
	return l.name
}

// Tiers returns a copy of the ladder's tiers
func (l *TierLadder) Tiers() []MultiplierTier {
	out := make([]MultiplierTier, len(l.tiers))
	copy(out, l.tiers)
	return out
}

// Resolve returns the multiplier for achievedPct (87.5 means 87.5% of goal).
// A value on a boundary belongs to the tier starting at that boundary.
// Values below the first tier get the first tier's multiplier; values past a
// non-terminal last tier keep the last multiplier.
func (l *TierLadder) Resolve(achievedPct decimal.Decimal) (decimal.Decimal, error) {
	if achievedPct.IsNegative() {
		return decimal.Zero, NewDomainError(ErrorCodeValidationFailed, "achieved percentage cannot be negative").
			WithDetail("achieved_pct", achievedPct.String())
	}

	first := l.tiers[0]
	if achievedPct.LessThan(first.RangeStart) {
		return first.Multiplier, nil
	}

	for _, tier := range l.tiers {
		if tier.contains(achievedPct) {
			return tier.Multiplier, nil
		}
	}

	top := l.tiers[len(l.tiers)-1]
	if top.Terminal {
		return decimal.Zero, NewDomainError(ErrorCodeAchievementOutOfRange, "achievement is outside the tier ladder").
			WithDetail("ladder", l.name).
			WithDetail("achieved_pct", achievedPct.String()).
			WithDetail("ladder_end", top.RangeEnd.String())
	}
	return top.Multiplier, nil
}

// ResolveMultiplier validates tiers and resolves achievedPct in one call.
// Prefer building a TierLadder once when resolving many values.
func ResolveMultiplier(tiers []MultiplierTier, achievedPct decimal.Decimal) (decimal.Decimal, error) {
	ladder, err := NewTierLadder("adhoc", tiers)
	if err != nil {
		return decimal.Zero, err
	}
	return ladder.Resolve(achievedPct)
}
