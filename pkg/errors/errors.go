package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard error codes
const (
	CodeValidationError        = "VALIDATION_ERROR"
	CodeNotFound               = "RESOURCE_NOT_FOUND"
	CodeConflict               = "CONFLICT"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeForbidden              = "FORBIDDEN"
	CodeInternalError          = "INTERNAL_ERROR"
	CodeBadRequest             = "BAD_REQUEST"
	CodeServiceUnavailable     = "SERVICE_UNAVAILABLE"
	CodeTimeout                = "TIMEOUT"
	CodeInvalidTransition      = "INVALID_TRANSITION"
	CodeShiftNotClaimable      = "SHIFT_NOT_CLAIMABLE"
	CodeOutOfRange             = "OUT_OF_RANGE"
	CodeAlreadyResolved        = "ALREADY_RESOLVED"
	CodeSwapNotPending         = "SWAP_NOT_PENDING"
	CodeApprovalRequired       = "APPROVAL_REQUIRED"
	CodeTransientStoreFailure  = "TRANSIENT_STORE_FAILURE"
	CodeChannelDeliveryFailure = "CHANNEL_DELIVERY_FAILURE"
)

// AppError represents an application error with HTTP status and error code
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	HTTPStatus int               `json:"-"`
	Err        error             `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// WithDetail adds a single detail to the error
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// Wrap wraps an existing error
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

// Retriable reports whether the caller may retry the failed operation.
// Only transient store/cache failures are retriable; business-rule
// rejections and programming errors are not.
func (e *AppError) Retriable() bool {
	return e.Code == CodeTransientStoreFailure || e.Code == CodeTimeout || e.Code == CodeServiceUnavailable
}

// NewAppError creates a new AppError
func NewAppError(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// ErrValidation creates a validation error
func ErrValidation(message string) *AppError {
	return NewAppError(CodeValidationError, message, http.StatusBadRequest)
}

// ErrValidationWithFields creates a validation error with field details
func ErrValidationWithFields(message string, fields map[string]string) *AppError {
	return ErrValidation(message).WithDetails(fields)
}

// ErrNotFound creates a not found error
func ErrNotFound(resource string) *AppError {
	return NewAppError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// ErrNotFoundWithID creates a not found error with ID
func ErrNotFoundWithID(resource, id string) *AppError {
	return ErrNotFound(resource).WithDetail("id", id)
}

// ErrConflict creates a conflict error
func ErrConflict(message string) *AppError {
	return NewAppError(CodeConflict, message, http.StatusConflict)
}

// ErrUnauthorized creates an unauthorized error
func ErrUnauthorized(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return NewAppError(CodeUnauthorized, message, http.StatusUnauthorized)
}

// ErrForbidden creates a forbidden error
func ErrForbidden(message string) *AppError {
	if message == "" {
		message = "access denied"
	}
	return NewAppError(CodeForbidden, message, http.StatusForbidden)
}

// ErrInternal creates an internal error
func ErrInternal(message string) *AppError {
	if message == "" {
		message = "an internal error occurred"
	}
	return NewAppError(CodeInternalError, message, http.StatusInternalServerError)
}

// ErrBadRequest creates a bad request error
func ErrBadRequest(message string) *AppError {
	return NewAppError(CodeBadRequest, message, http.StatusBadRequest)
}

// ErrServiceUnavailable creates a service unavailable error
func ErrServiceUnavailable(service string) *AppError {
	return NewAppError(CodeServiceUnavailable, fmt.Sprintf("%s is temporarily unavailable", service), http.StatusServiceUnavailable)
}

// ErrTimeout creates a timeout error
func ErrTimeout(operation string) *AppError {
	return NewAppError(CodeTimeout, fmt.Sprintf("%s timed out", operation), http.StatusGatewayTimeout)
}

// Domain errors

// ErrInvalidTransition creates an error for an illegal shift status change.
// Always a caller error; never retried.
func ErrInvalidTransition(from, to string) *AppError {
	return NewAppError(CodeInvalidTransition,
		fmt.Sprintf("cannot transition shift from %s to %s", from, to),
		http.StatusUnprocessableEntity).
		WithDetail("from", from).
		WithDetail("to", to)
}

// ErrShiftNotClaimable creates an error for a claim against a shift that is
// not open for claims.
func ErrShiftNotClaimable(status string) *AppError {
	return NewAppError(CodeShiftNotClaimable,
		fmt.Sprintf("shift in status %s cannot be claimed", status),
		http.StatusUnprocessableEntity).
		WithDetail("status", status)
}

// ErrOutOfRange creates an error for a cross-tenant claim the worker cannot
// physically reach in time.
func ErrOutOfRange(estimatedMinutes, availableMinutes int) *AppError {
	return NewAppError(CodeOutOfRange,
		"commute to shift location is not feasible in the available time",
		http.StatusUnprocessableEntity).
		WithDetail("estimatedMinutes", fmt.Sprintf("%d", estimatedMinutes)).
		WithDetail("availableMinutes", fmt.Sprintf("%d", availableMinutes))
}

// ErrAlreadyResolved creates an error for resolving a claim that is no
// longer pending.
func ErrAlreadyResolved(status string) *AppError {
	return NewAppError(CodeAlreadyResolved,
		fmt.Sprintf("claim has already been resolved (status %s)", status),
		http.StatusConflict).
		WithDetail("status", status)
}

// ErrSwapNotPending creates an error for resolving a swap that is no
// longer pending.
func ErrSwapNotPending(status string) *AppError {
	return NewAppError(CodeSwapNotPending,
		fmt.Sprintf("swap has already been resolved (status %s)", status),
		http.StatusConflict).
		WithDetail("status", status)
}

// ErrApprovalRequired creates an error for accepting a swap that still
// needs a manager decision.
func ErrApprovalRequired() *AppError {
	return NewAppError(CodeApprovalRequired,
		"swap requires manager approval before it can be accepted",
		http.StatusUnprocessableEntity)
}

// ErrTransientStore wraps a store or cache failure the caller may retry
// with backoff.
func ErrTransientStore(err error) *AppError {
	return NewAppError(CodeTransientStoreFailure,
		"store operation failed transiently",
		http.StatusServiceUnavailable).Wrap(err)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// FromError converts a standard error to an AppError
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return ErrInternal("").Wrap(err)
}
