package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name:     "without wrapped error",
			err:      NewDomainError(ErrorCodePayoutNotFound, "payout not found"),
			expected: "PAYOUT_NOT_FOUND: payout not found",
		},
		{
			name:     "with wrapped error",
			err:      WrapError(ErrorCodeDatabaseError, "load payout", errors.New("connection reset")),
			expected: "INTERNAL_DATABASE_ERROR: load payout: connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestDomainError_WrappingChain(t *testing.T) {
	root := errors.New("pgx: no rows in result set")
	domainErr := WrapError(ErrorCodePayoutNotFound, "payout not found", root)
	wrapped := fmt.Errorf("approve payout: %w", domainErr)

	assert.True(t, errors.Is(wrapped, root))
	assert.True(t, errors.Is(wrapped, ErrPayoutNotFound))
	assert.False(t, errors.Is(wrapped, ErrPayoutInvalidState))
	assert.Equal(t, ErrorCodePayoutNotFound, GetErrorCode(wrapped))
}

func TestDomainError_WithDetail(t *testing.T) {
	err := NewConfigurationError("tier %d overlaps tier %d", 1, 2).
		WithDetail("ladder", "sdr")

	assert.Equal(t, "sdr", err.Details["ladder"])
	assert.Contains(t, err.Error(), "tier 1 overlaps tier 2")

	var empty DomainError
	empty.WithDetail("k", "v")
	assert.Equal(t, "v", empty.Details["k"])
}

func TestErrorClassifiers(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		configuration bool
		invalidState  bool
		dataIntegrity bool
		notFound      bool
		conflict      bool
		validation    bool
	}{
		{name: "configuration", err: NewConfigurationError("bad ladder"), configuration: true},
		{name: "invalid state", err: NewInvalidStateError("payout is locked"), invalidState: true},
		{name: "data integrity", err: NewDataIntegrityError("no customer key"), dataIntegrity: true},
		{name: "not found", err: ErrPayoutNotFound, notFound: true},
		{name: "version conflict", err: ErrPayoutVersionConflict, conflict: true},
		{name: "already exists", err: ErrPayoutAlreadyExists, conflict: true},
		{name: "validation", err: NewValidationError("reason is required"), validation: true},
		{name: "achievement out of range", err: ErrAchievementOutOfRange, validation: true},
		{name: "plain error", err: errors.New("boom")},
		{name: "nil error", err: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.configuration, IsConfigurationError(tt.err))
			assert.Equal(t, tt.invalidState, IsInvalidStateError(tt.err))
			assert.Equal(t, tt.dataIntegrity, IsDataIntegrityError(tt.err))
			assert.Equal(t, tt.notFound, IsNotFoundError(tt.err))
			assert.Equal(t, tt.conflict, IsConflictError(tt.err))
			assert.Equal(t, tt.validation, IsValidationError(tt.err))
		})
	}
}

func TestGetErrorCode_NonDomainError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), GetErrorCode(errors.New("plain")))
	assert.True(t, IsDomainError(fmt.Errorf("ctx: %w", ErrDataIntegrity), ErrorCodeDataIntegrity))
}
