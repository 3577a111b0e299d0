package errors

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
)

// ErrorCategory represents the category of error for handling
type ErrorCategory string

const (
	CategoryValidation    ErrorCategory = "validation"
	CategoryNotFound      ErrorCategory = "not_found"
	CategoryConflict      ErrorCategory = "conflict"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryCanceled      ErrorCategory = "canceled"
	CategorySystemError   ErrorCategory = "system_error"
)

// APIError is the JSON error body returned by the HTTP surface
type APIError struct {
	Details  map[string]interface{} `json:"details,omitempty"`
	Code     string                 `json:"code"`
	Message  string                 `json:"message"`
	Category ErrorCategory          `json:"category"`
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

// Classify maps an error returned by the services to a category
func Classify(err error) ErrorCategory {
	switch {
	case err == nil:
		return ""
	case domain.IsValidationError(err):
		return CategoryValidation
	case domain.IsNotFoundError(err):
		return CategoryNotFound
	case domain.IsInvalidStateError(err), domain.IsConflictError(err):
		return CategoryConflict
	case domain.IsConfigurationError(err):
		return CategoryConfiguration
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return CategoryCanceled
	default:
		return CategorySystemError
	}
}

// HTTPStatus returns the response status for a category
func HTTPStatus(category ErrorCategory) int {
	switch category {
	case CategoryValidation:
		return http.StatusBadRequest
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryConflict:
		return http.StatusConflict
	case CategoryCanceled:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// FromError builds the client-facing error. Domain errors keep their code,
// message and details; anything else is reported as an opaque internal error.
func FromError(err error) *APIError {
	category := Classify(err)

	var domainErr *domain.DomainError
	if stderrors.As(err, &domainErr) && category != CategorySystemError {
		return &APIError{
			Code:     string(domainErr.Code),
			Message:  domainErr.Message,
			Details:  domainErr.Details,
			Category: category,
		}
	}

	if category == CategoryCanceled {
		return &APIError{Code: "REQUEST_CANCELED", Message: "request canceled", Category: category}
	}
	return &APIError{
		Code:     string(domain.ErrorCodeInternalError),
		Message:  "internal server error",
		Category: CategorySystemError,
	}
}

// NewValidationError creates a validation error for a request field
func NewValidationError(field, message string) *APIError {
	return &APIError{
		Code:     string(domain.ErrorCodeValidationFailed),
		Message:  message,
		Details:  map[string]interface{}{"field": field},
		Category: CategoryValidation,
	}
}
