package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies application errors for transport mapping and logging.
type ErrorCode string

const (
	CodeValidation        ErrorCode = "VALIDATION"
	CodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	CodeForbidden         ErrorCode = "FORBIDDEN"
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeConflict          ErrorCode = "CONFLICT"
	CodeInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"
	CodeInvalidState      ErrorCode = "INVALID_STATE"
)

// AppError is a typed application error carrying a stable code and a
// caller-facing message.
type AppError struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidationError creates an error for invalid caller input.
func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

// NewUnauthorizedError creates an error for missing or invalid credentials.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message}
}

// NewForbiddenError creates an error for an identity acting outside its rights.
func NewForbiddenError(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message}
}

// NewNotFoundError creates an error for a missing resource.
func NewNotFoundError(resource, id string) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", resource, id)}
}

// NewConflictError creates a retryable contention error. Callers may retry
// the operation or re-search for availability.
func NewConflictError(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message}
}

// NewInsufficientFundsError creates an error for a wallet debit exceeding its
// balance. Not retryable until the wallet is topped up.
func NewInsufficientFundsError(message string) *AppError {
	return &AppError{Code: CodeInsufficientFunds, Message: message}
}

// NewInvalidStateError creates an error for an illegal lifecycle transition.
// These indicate a caller bug and are logged louder than plain validation
// failures.
func NewInvalidStateError(from, to string) *AppError {
	return &AppError{Code: CodeInvalidState, Message: fmt.Sprintf("illegal transition from %s to %s", from, to)}
}

// AsAppError extracts an *AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given application error code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
