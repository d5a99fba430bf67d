package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode identifies a class of failure.
type ErrorCode string

const (
	ErrCodeInternal   ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"
	ErrCodeForbidden  ErrorCode = "FORBIDDEN"

	// Giveaway failures
	ErrCodeGiveawayNotFound ErrorCode = "GIVEAWAY_NOT_FOUND"
	ErrCodeGiveawayEnded    ErrorCode = "GIVEAWAY_ENDED"
	ErrCodeInvalidWinners   ErrorCode = "INVALID_WINNERS_COUNT"
	ErrCodeInvalidDuration  ErrorCode = "INVALID_DURATION"

	// External systems
	ErrCodeRemoteCall   ErrorCode = "REMOTE_CALL_FAILURE"
	ErrCodeDiscordAPI   ErrorCode = "DISCORD_API_ERROR"
	ErrCodePresentation ErrorCode = "PRESENTATION_FAILURE"
	ErrCodeStorage      ErrorCode = "STORAGE_FAILURE"
	ErrCodeCache        ErrorCode = "CACHE_ERROR"
)

// AppError is the typed error carried across component boundaries.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsNotFound reports whether the error is a lookup failure.
func (e *AppError) IsNotFound() bool {
	return e.Code == ErrCodeNotFound || e.Code == ErrCodeGiveawayNotFound
}

// IsValidation reports whether the error should be surfaced to the
// requesting user rather than logged as a system fault.
func (e *AppError) IsValidation() bool {
	return e.Code == ErrCodeValidation ||
		e.Code == ErrCodeInvalidWinners ||
		e.Code == ErrCodeInvalidDuration
}

// WithDetail attaches structured detail to the error.
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new application error.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Wrap wraps an existing error with a code and message.
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// NewValidationError builds a user-facing validation failure.
func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("Validation failed for field '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

// NewGiveawayNotFoundError builds a lookup failure for an unknown giveaway id.
func NewGiveawayNotFoundError(giveawayID string) *AppError {
	return New(ErrCodeGiveawayNotFound, fmt.Sprintf("Giveaway not found: %s", giveawayID)).
		WithDetail("giveaway_id", giveawayID)
}

// NewRemoteCallError wraps a failed remote backend call. Callers are
// expected to recover locally; the error exists for the warning log.
func NewRemoteCallError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeRemoteCall, fmt.Sprintf("Remote backend call failed: %s", operation)).
		WithDetail("operation", operation)
}

// NewStorageError wraps a snapshot write failure. This is the one
// category that risks real data loss and must reach the operator.
func NewStorageError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeStorage, fmt.Sprintf("Storage operation failed: %s", operation)).
		WithDetail("operation", operation)
}

// NewPresentationError wraps a failed Discord edit/send. Logged and
// skipped, never blocks a state transition.
func NewPresentationError(operation string, err error) *AppError {
	return Wrap(err, ErrCodePresentation, fmt.Sprintf("Discord presentation failed: %s", operation)).
		WithDetail("operation", operation)
}

// NewCacheError wraps a cache failure.
func NewCacheError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeCache, fmt.Sprintf("Cache operation failed: %s", operation)).
		WithDetail("operation", operation)
}

// AsAppError extracts an AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
