package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned (possibly wrapped) by every backend when the
// addressed record, document or order does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// BackendWriteError means the primary external write failed and the
// operation was aborted.
type BackendWriteError struct {
	Backend   string
	Operation string
	Err       error
}

func (e *BackendWriteError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Backend, e.Operation, e.Err)
}

func (e *BackendWriteError) Unwrap() error { return e.Err }

// BackendReadError means a read against an external backend failed.
type BackendReadError struct {
	Backend   string
	Operation string
	Err       error
}

func (e *BackendReadError) Error() string {
	return fmt.Sprintf("%s %s read failed: %v", e.Backend, e.Operation, e.Err)
}

func (e *BackendReadError) Unwrap() error { return e.Err }

// SecondaryWriteError is a failed mirror write. It is folded into the
// result as a warning unless the entity policy aborts on it.
type SecondaryWriteError struct {
	Backend   string
	Operation string
	Err       error
}

func (e *SecondaryWriteError) Error() string {
	return fmt.Sprintf("%s mirror %s failed: %v", e.Backend, e.Operation, e.Err)
}

func (e *SecondaryWriteError) Unwrap() error { return e.Err }

// NotificationError is a failed email send.
type NotificationError struct {
	Template string
	To       string
	Err      error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification %q to %s failed: %v", e.Template, e.To, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// LoggingError is a failed activity log append. It is never surfaced to
// callers.
type LoggingError struct {
	Err error
}

func (e *LoggingError) Error() string {
	return fmt.Sprintf("activity log append failed: %v", e.Err)
}

func (e *LoggingError) Unwrap() error { return e.Err }

// ValidationErrors collects several field problems into one error.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// IsValidation reports whether err is a ValidationError or ValidationErrors.
func IsValidation(err error) bool {
	var ve *ValidationError
	var ves ValidationErrors
	return errors.As(err, &ve) || errors.As(err, &ves)
}
