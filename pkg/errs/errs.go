// Package errs defines the shared error taxonomy used across sovra's
// autonomy packages and the wrapper types that carry per-error context.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors. Wrap these with the context-carrying types below rather
// than constructing new error strings ad hoc, so callers can errors.Is/As
// against a stable set.
var (
	// ErrPermissionDenied indicates the Policy Oracle blocked an action.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrTimeout indicates a bounded operation exceeded its deadline.
	ErrTimeout = errors.New("timeout")

	// ErrExecution indicates a task handler ran but the underlying action failed.
	ErrExecution = errors.New("execution error")

	// ErrValidation indicates malformed input was rejected before any action was taken.
	ErrValidation = errors.New("validation error")

	// ErrTransport indicates a network/IO call to an external dependency failed.
	ErrTransport = errors.New("transport error")

	// ErrConfig indicates configuration loading or validation failed.
	ErrConfig = errors.New("config error")

	// ErrNotFound indicates a lookup (task, job) found nothing.
	ErrNotFound = errors.New("not found")
)

// PermissionDeniedError wraps ErrPermissionDenied with the action that was blocked.
type PermissionDeniedError struct {
	Action string
	Reason string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied for %q: %s", e.Action, e.Reason)
}

func (e *PermissionDeniedError) Unwrap() error { return ErrPermissionDenied }

// NewPermissionDenied constructs a PermissionDeniedError.
func NewPermissionDenied(action, reason string) error {
	return &PermissionDeniedError{Action: action, Reason: reason}
}

// TimeoutError wraps ErrTimeout with the operation and the deadline that fired.
type TimeoutError struct {
	Operation string
	SecondsTimeout int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %ds", e.Operation, e.SecondsTimeout)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// NewTimeout constructs a TimeoutError.
func NewTimeout(operation string, seconds int) error {
	return &TimeoutError{Operation: operation, SecondsTimeout: seconds}
}

// ExecutionError wraps ErrExecution with the handler and underlying cause.
type ExecutionError struct {
	Handler string
	Err     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s execution failed: %v", e.Handler, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Is reports whether target is ErrExecution, so errors.Is(err, ErrExecution) works
// even though Unwrap chains to the underlying cause rather than the sentinel.
func (e *ExecutionError) Is(target error) bool { return target == ErrExecution }

// NewExecution constructs an ExecutionError.
func NewExecution(handler string, err error) error {
	return &ExecutionError{Handler: handler, Err: err}
}

// ValidationError wraps ErrValidation with the field and message.
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

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidation constructs a ValidationError.
func NewValidation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// TransportError wraps ErrTransport with the remote endpoint and underlying cause.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error calling %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// NewTransport constructs a TransportError.
func NewTransport(endpoint string, err error) error {
	return &TransportError{Endpoint: endpoint, Err: err}
}

// ConfigError wraps ErrConfig with the source (file or env var) and cause.
type ConfigError struct {
	Source string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// NewConfig constructs a ConfigError.
func NewConfig(source string, err error) error {
	return &ConfigError{Source: source, Err: err}
}

// Retryable reports whether a task that failed with err should be retried
// (subject to the queue's max-attempts budget) rather than failing terminally
// on the spot. PermissionDenied and ValidationError are not retryable: retrying
// them re-derives the same denial or the same malformed input.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrPermissionDenied) && !errors.Is(err, ErrValidation)
}
