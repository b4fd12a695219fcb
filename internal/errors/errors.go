package errors

import (
	"fmt"
	"net/http"
	"strings"
)

type ErrorCode string

const (
	ValidationFailed     ErrorCode = "validation_failed"
	InvalidProvider      ErrorCode = "invalid_provider"
	FraudRejected        ErrorCode = "fraud_rejected"
	StepUpRequired       ErrorCode = "step_up_required"
	UnknownStatus        ErrorCode = "unknown_status"
	TransactionNotFound  ErrorCode = "transaction_not_found"
	DuplicateTransaction ErrorCode = "duplicate_transaction"
	StaleTransaction     ErrorCode = "stale_transaction"
	InvalidInput         ErrorCode = "invalid_input"
	InternalError        ErrorCode = "internal_error"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ValidationFailed, InvalidInput, StepUpRequired:
		return http.StatusBadRequest
	case FraudRejected:
		return http.StatusForbidden
	case TransactionNotFound:
		return http.StatusNotFound
	case DuplicateTransaction, StaleTransaction:
		return http.StatusConflict
	case InvalidProvider, UnknownStatus:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Predefined errors for common cases
var (
	ErrDuplicateTransaction = NewAppError(DuplicateTransaction, "transaction already exists")
	ErrStaleTransaction     = NewAppError(StaleTransaction, "transaction was modified concurrently")
	ErrFraudRejected        = NewAppError(FraudRejected, "transaction rejected by fraud screening")
)

// ValidationError collects every violated business rule of one request.
// Violations keep insertion order and are reported together, never just
// the first.
type ValidationError struct {
	Violations []string
}

func NewValidationError(violations ...string) *ValidationError {
	return &ValidationError{Violations: violations}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

func (e *ValidationError) HTTPStatus() int {
	return http.StatusBadRequest
}

// StepUpError signals a terminal-for-this-attempt fraud outcome that
// requires an elevated approval challenge. Level carries the fraud
// status the caller must present (STEP_UP_LEVEL1..4).
type StepUpError struct {
	Level string
}

func (e *StepUpError) Error() string {
	return fmt.Sprintf("step-up required: %s", e.Level)
}

// InvalidProviderError means zero or more than one provider matched a
// transaction type and merchant code. This is a configuration defect,
// never resolved silently.
type InvalidProviderError struct {
	Code string
}

func (e *InvalidProviderError) Error() string {
	return fmt.Sprintf("invalid provider found for %s", e.Code)
}

// TransactionNotFoundError is raised when a posting callback references
// an id no creation orchestrator ever persisted.
type TransactionNotFoundError struct {
	ID string
}

func (e *TransactionNotFoundError) Error() string {
	return fmt.Sprintf("transaction %s not found", e.ID)
}

// UnknownStatusError signals a collaborator contract violation, such as
// the fraud service returning UNKNOWN.
type UnknownStatusError struct {
	Message string
}

func (e *UnknownStatusError) Error() string {
	return e.Message
}
