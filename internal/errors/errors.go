package errors

import (
	"errors"
	"fmt"
)

// Code categorizes an engine error so callers can decide whether to retry,
// reject, or surface the message to the player.
type Code string

const (
	// CodeUnknown indicates an unknown error
	CodeUnknown Code = "unknown"

	// CodeInvalidLocation indicates a malformed location token
	CodeInvalidLocation Code = "invalid_location"

	// CodePreconditionFailed indicates the action's preconditions were not met
	CodePreconditionFailed Code = "precondition_failed"

	// CodeStunned indicates the player is stunned and cannot act
	CodeStunned Code = "stunned"

	// CodeItemMissing indicates a required item is not held
	CodeItemMissing Code = "item_missing"

	// CodeInsufficientResource indicates not enough water or turns remain
	CodeInsufficientResource Code = "insufficient_resource"

	// CodeInvalidTarget indicates the action targets an invalid player or location
	CodeInvalidTarget Code = "invalid_target"

	// CodeNotFound indicates a requested record was not found
	CodeNotFound Code = "not_found"

	// CodeConflict indicates lock contention; the caller should retry the action
	CodeConflict Code = "conflict"

	// CodeUnavailable indicates a persistence failure; the action was rolled
	// back and may be retried
	CodeUnavailable Code = "unavailable"

	// CodeInternal indicates an invariant violation inside the engine
	CodeInternal Code = "internal"
)

// Error is an engine error with a code, a display-ready message, and metadata.
type Error struct {
	// Code is the error code
	Code Code

	// Message is human-readable and suitable for direct display
	Message string

	// Cause is the wrapped error
	Cause error

	// Meta contains additional context
	Meta map[string]any
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithMeta adds metadata to the error (builder pattern)
func (e *Error) WithMeta(key string, value any) *Error {
	if e.Meta == nil {
		e.Meta = make(map[string]any)
	}
	e.Meta[key] = value
	return e
}

// New creates a new error with the given code and message
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new error with formatted message
func Newf(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}

	// If it's already our error type, preserve the code
	var engErr *Error
	if errors.As(err, &engErr) {
		return &Error{
			Code:    engErr.Code,
			Message: message,
			Cause:   err,
			Meta:    copyMeta(engErr.Meta),
		}
	}

	return &Error{
		Code:    CodeUnknown,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted message
func Wrapf(err error, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WrapWithCode wraps an error with a specific code
func WrapWithCode(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}

	wrapped := Wrap(err, message)
	wrapped.Code = code
	return wrapped
}

// Helper constructors for the common kinds

// InvalidLocation creates an invalid location error
func InvalidLocation(message string) *Error {
	return New(CodeInvalidLocation, message)
}

// InvalidLocationf creates a formatted invalid location error
func InvalidLocationf(format string, args ...any) *Error {
	return Newf(CodeInvalidLocation, format, args...)
}

// PreconditionFailed creates a precondition failed error
func PreconditionFailed(message string) *Error {
	return New(CodePreconditionFailed, message)
}

// PreconditionFailedf creates a formatted precondition failed error
func PreconditionFailedf(format string, args ...any) *Error {
	return Newf(CodePreconditionFailed, format, args...)
}

// ItemMissing creates an item missing error
func ItemMissing(message string) *Error {
	return New(CodeItemMissing, message)
}

// InsufficientResource creates an insufficient resource error
func InsufficientResource(message string) *Error {
	return New(CodeInsufficientResource, message)
}

// InsufficientResourcef creates a formatted insufficient resource error
func InsufficientResourcef(format string, args ...any) *Error {
	return Newf(CodeInsufficientResource, format, args...)
}

// InvalidTarget creates an invalid target error
func InvalidTarget(message string) *Error {
	return New(CodeInvalidTarget, message)
}

// NotFound creates a not found error
func NotFound(message string) *Error {
	return New(CodeNotFound, message)
}

// NotFoundf creates a formatted not found error
func NotFoundf(format string, args ...any) *Error {
	return Newf(CodeNotFound, format, args...)
}

// Conflict creates a retryable lock contention error
func Conflict(message string) *Error {
	return New(CodeConflict, message)
}

// Unavailable creates a retryable persistence failure error
func Unavailable(message string) *Error {
	return New(CodeUnavailable, message)
}

// Internal creates an internal error
func Internal(message string) *Error {
	return New(CodeInternal, message)
}

// Internalf creates a formatted internal error
func Internalf(format string, args ...any) *Error {
	return Newf(CodeInternal, format, args...)
}

// Error checking functions

// Is checks if the error is of a specific code
func Is(err error, code Code) bool {
	var engErr *Error
	if errors.As(err, &engErr) {
		return engErr.Code == code
	}
	return false
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return Is(err, CodeNotFound)
}

// IsInvalidLocation checks if the error is an invalid location error
func IsInvalidLocation(err error) bool {
	return Is(err, CodeInvalidLocation)
}

// IsConflict checks if the error is a lock contention error
func IsConflict(err error) bool {
	return Is(err, CodeConflict)
}

// IsRetryable reports whether the caller may safely retry the whole action.
func IsRetryable(err error) bool {
	return Is(err, CodeConflict) || Is(err, CodeUnavailable)
}

// IsInternal checks if the error is an internal error
func IsInternal(err error) bool {
	return Is(err, CodeInternal)
}

// GetCode returns the error code
func GetCode(err error) Code {
	var engErr *Error
	if errors.As(err, &engErr) {
		return engErr.Code
	}
	return CodeUnknown
}

// GetMeta returns the error metadata
func GetMeta(err error) map[string]any {
	var engErr *Error
	if errors.As(err, &engErr) {
		return engErr.Meta
	}
	return nil
}

// copyMeta creates a copy of the metadata map
func copyMeta(meta map[string]any) map[string]any {
	if meta == nil {
		return nil
	}

	copied := make(map[string]any, len(meta))
	for k, v := range meta {
		copied[k] = v
	}
	return copied
}
