package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that the operation cannot proceed because the resource
// is in a conflicting state (e.g. double disbursement, lost optimistic-lock race).
var ErrConflict = errors.New("resource conflict")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// AppError wraps an underlying error with a status code and message.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// StateTransitionError is returned when a journal entry lifecycle operation is
// invoked while the entry is not in the required state. It names both the
// current state and the attempted transition so callers can present an
// actionable message ("cannot post: entry is REVERSED").
type StateTransitionError struct {
	EntryID   string
	Current   string
	Requested string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("cannot transition entry %s to %s: entry is %s", e.EntryID, e.Requested, e.Current)
}

// Unwrap lets callers match with errors.Is(err, ErrConflict).
func (e *StateTransitionError) Unwrap() error {
	return ErrConflict
}

// NoMappingError is a soft, recoverable outcome: no active GL mapping is
// configured for the event type. Whether this is fatal is the caller's policy
// decision, not the adapter's.
type NoMappingError struct {
	EventType string
}

func (e *NoMappingError) Error() string {
	return fmt.Sprintf("no active GL mapping configured for event type %q", e.EventType)
}
