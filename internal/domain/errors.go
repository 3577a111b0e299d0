package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Configuration Errors (CONFIG_*)
	ErrorCodeConfigurationInvalid ErrorCode = "CONFIG_INVALID"

	// Payout Errors (PAYOUT_*)
	ErrorCodePayoutNotFound        ErrorCode = "PAYOUT_NOT_FOUND"
	ErrorCodePayoutInvalidState    ErrorCode = "PAYOUT_INVALID_STATE"
	ErrorCodePayoutVersionConflict ErrorCode = "PAYOUT_VERSION_CONFLICT"
	ErrorCodePayoutAlreadyExists   ErrorCode = "PAYOUT_ALREADY_EXISTS"

	// Data Integrity Errors (DATA_*)
	ErrorCodeDataIntegrity ErrorCode = "DATA_INTEGRITY"

	// Computation Errors
	ErrorCodeAchievementOutOfRange ErrorCode = "ACHIEVEMENT_OUT_OF_RANGE"

	// Validation Errors (VALIDATION_*)
	ErrorCodeValidationFailed        ErrorCode = "VALIDATION_FAILED"
	ErrorCodeValidationAmountInvalid ErrorCode = "VALIDATION_AMOUNT_INVALID"
	ErrorCodeValidationMissingField  ErrorCode = "VALIDATION_MISSING_FIELD"

	// Internal Errors (INTERNAL_*)
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches another DomainError by code, so sentinel values work with errors.Is
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if errors.As(target, &other) {
		return other.Code == e.Code
	}
	return false
}

// WithDetail adds a detail field to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// NewConfigurationError reports a malformed tier ladder, schedule or catalog.
// Configuration errors are fatal: callers must stop the computation.
func NewConfigurationError(format string, args ...interface{}) *DomainError {
	return NewDomainError(ErrorCodeConfigurationInvalid, fmt.Sprintf(format, args...))
}

// NewInvalidStateError reports a lifecycle violation on a payout
func NewInvalidStateError(format string, args ...interface{}) *DomainError {
	return NewDomainError(ErrorCodePayoutInvalidState, fmt.Sprintf(format, args...))
}

// NewDataIntegrityError reports a single record that cannot be aggregated
func NewDataIntegrityError(format string, args ...interface{}) *DomainError {
	return NewDomainError(ErrorCodeDataIntegrity, fmt.Sprintf(format, args...))
}

// NewValidationError reports invalid caller input
func NewValidationError(format string, args ...interface{}) *DomainError {
	return NewDomainError(ErrorCodeValidationFailed, fmt.Sprintf(format, args...))
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsConfigurationError checks if an error comes from malformed static configuration
func IsConfigurationError(err error) bool {
	return GetErrorCode(err) == ErrorCodeConfigurationInvalid
}

// IsInvalidStateError checks if an error is a payout lifecycle violation
func IsInvalidStateError(err error) bool {
	return GetErrorCode(err) == ErrorCodePayoutInvalidState
}

// IsDataIntegrityError checks if an error describes an unusable record
func IsDataIntegrityError(err error) bool {
	return GetErrorCode(err) == ErrorCodeDataIntegrity
}

// IsNotFoundError checks if an error represents a "not found" condition
func IsNotFoundError(err error) bool {
	return GetErrorCode(err) == ErrorCodePayoutNotFound
}

// IsConflictError checks if an error is a concurrent-modification or uniqueness conflict
func IsConflictError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodePayoutVersionConflict ||
		code == ErrorCodePayoutAlreadyExists
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeValidationFailed ||
		code == ErrorCodeValidationAmountInvalid ||
		code == ErrorCodeValidationMissingField ||
		code == ErrorCodeAchievementOutOfRange
}

// Sentinel errors for errors.Is comparisons. Never mutate these; build a new
// error with NewDomainError when details are needed.
var (
	ErrConfigurationInvalid  = NewDomainError(ErrorCodeConfigurationInvalid, "invalid configuration")
	ErrPayoutNotFound        = NewDomainError(ErrorCodePayoutNotFound, "payout not found")
	ErrPayoutInvalidState    = NewDomainError(ErrorCodePayoutInvalidState, "payout is in invalid state for this operation")
	ErrPayoutVersionConflict = NewDomainError(ErrorCodePayoutVersionConflict, "payout was modified concurrently")
	ErrPayoutAlreadyExists   = NewDomainError(ErrorCodePayoutAlreadyExists, "payout already exists for person and period")
	ErrDataIntegrity         = NewDomainError(ErrorCodeDataIntegrity, "record cannot be normalized")
	ErrAchievementOutOfRange = NewDomainError(ErrorCodeAchievementOutOfRange, "achievement is outside the tier ladder")

	ErrValidationFailed        = NewDomainError(ErrorCodeValidationFailed, "validation failed")
	ErrValidationAmountInvalid = NewDomainError(ErrorCodeValidationAmountInvalid, "invalid amount")
	ErrValidationMissingField  = NewDomainError(ErrorCodeValidationMissingField, "required field missing")

	ErrInternalError = NewDomainError(ErrorCodeInternalError, "internal server error")
	ErrDatabaseError = NewDomainError(ErrorCodeDatabaseError, "database error")
)
