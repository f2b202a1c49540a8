package domain

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes domain errors.
type ErrorCode string

const (
	// ErrCodeNotFound: the referenced plan item or log does not exist for
	// the requesting user. Not retried.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeValidation: malformed input, rejected before any repository
	// call.
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeReconciliation: the log was written but the completion update
	// failed. The log is never rolled back.
	ErrCodeReconciliation ErrorCode = "RECONCILIATION_FAILED"

	// ErrCodeAggregationInput: a stored log has a missing or corrupt
	// quantity and was left out of a summary.
	ErrCodeAggregationInput ErrorCode = "AGGREGATION_INPUT"
)

// Error is the typed error returned across the engine boundary.
type Error struct {
	Code    ErrorCode
	Message string

	// UserID identifies the requesting user when known.
	UserID string

	// Field names the offending input for validation errors.
	Field string

	// ID is the plan item or log id involved, if any.
	ID string

	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Field != "" {
		msg = fmt.Sprintf("%s (field=%s)", msg, e.Field)
	}
	if e.ID != "" {
		msg = fmt.Sprintf("%s (id=%s)", msg, e.ID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewNotFoundError reports a missing plan item or log.
func NewNotFoundError(userID, id, what string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: what + " not found",
		UserID:  userID,
		ID:      id,
	}
}

// NewValidationError reports a rejected input field.
func NewValidationError(field, message string) *Error {
	return &Error{
		Code:    ErrCodeValidation,
		Message: message,
		Field:   field,
	}
}

// NewReconciliationFailure wraps a storage error raised after the log
// write committed.
func NewReconciliationFailure(userID string, err error) *Error {
	return &Error{
		Code:    ErrCodeReconciliation,
		Message: "activity logged; plan status may be stale",
		UserID:  userID,
		Err:     err,
	}
}

// NewAggregationInputError reports a log excluded from a summary.
func NewAggregationInputError(logID, message string) *Error {
	return &Error{
		Code:    ErrCodeAggregationInput,
		Message: message,
		ID:      logID,
	}
}

func hasCode(err error, code ErrorCode) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// IsNotFound reports whether err (or anything it wraps) is a not-found error.
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return hasCode(err, ErrCodeValidation) }

// IsReconciliationFailure reports whether err is a reconciliation failure.
func IsReconciliationFailure(err error) bool { return hasCode(err, ErrCodeReconciliation) }

// IsAggregationInput reports whether err is an aggregation input error.
func IsAggregationInput(err error) bool { return hasCode(err, ErrCodeAggregationInput) }

// CodeOf returns the error's code, or "" for foreign errors.
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
