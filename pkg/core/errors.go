package core

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of an engine error.
type ErrorType int

// Error type constants categorize failures raised while interpreting a route spec.
const (
	// ErrorTypeConfig indicates a malformed route spec (missing method/path,
	// empty field name, invalid filter verdict or sort direction).
	ErrorTypeConfig ErrorType = iota
	// ErrorTypeMissingArgument indicates a required caller argument was absent.
	ErrorTypeMissingArgument
	// ErrorTypeValidation indicates a declared checker rejected an argument value.
	ErrorTypeValidation
	// ErrorTypeUnknownAction indicates no spec provider is registered for the action.
	ErrorTypeUnknownAction
	// ErrorTypePath indicates a dotted-path lookup traversed into a scalar value.
	ErrorTypePath
)

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	return [...]string{
		"CONFIG",
		"MISSING_ARGUMENT",
		"VALIDATION",
		"UNKNOWN_ACTION",
		"PATH",
	}[t]
}

// Sentinel errors for common engine conditions.
var (
	// ErrNoResponseBody is returned when the collaborator has no parsed body to read.
	ErrNoResponseBody = errors.New("no parsed response body available")
	// ErrNilRoute is returned when a spec provider yields a nil route spec.
	ErrNilRoute = errors.New("spec provider returned nil route")
)

// EngineError is a structured error raised while building a request or
// mapping a response. Every engine failure is fatal to the current call;
// nothing is retried or recovered inside the engine.
type EngineError struct {
	// Type categorizes the error for programmatic handling.
	Type ErrorType `json:"type"`
	// Action is the action name being dispatched, when known.
	Action string `json:"action,omitempty"`
	// Subject is the alias, destination field, or dotted path involved.
	Subject string `json:"subject,omitempty"`
	// Message is the human-readable description.
	Message string `json:"message"`
}

// Error implements the error interface for EngineError.
func (e *EngineError) Error() string {
	switch {
	case e.Action != "" && e.Subject != "":
		return fmt.Sprintf("%s [%s/%s]: %s", e.Type, e.Action, e.Subject, e.Message)
	case e.Action != "":
		return fmt.Sprintf("%s [%s]: %s", e.Type, e.Action, e.Message)
	case e.Subject != "":
		return fmt.Sprintf("%s [%s]: %s", e.Type, e.Subject, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
}

// NewConfigError creates an EngineError for a malformed route spec.
func NewConfigError(action, message string) *EngineError {
	return &EngineError{Type: ErrorTypeConfig, Action: action, Message: message}
}

// NewMissingArgumentError creates an EngineError for a required alias
// that was absent from the caller arguments.
func NewMissingArgumentError(action, alias string) *EngineError {
	return &EngineError{
		Type:    ErrorTypeMissingArgument,
		Action:  action,
		Subject: alias,
		Message: "required argument missing",
	}
}

// NewValidationError creates an EngineError carrying the message declared
// by the checker that rejected the value.
func NewValidationError(action, alias, message string) *EngineError {
	return &EngineError{
		Type:    ErrorTypeValidation,
		Action:  action,
		Subject: alias,
		Message: message,
	}
}

// NewUnknownActionError creates an EngineError for an action with no
// registered spec provider.
func NewUnknownActionError(action string) *EngineError {
	return &EngineError{
		Type:    ErrorTypeUnknownAction,
		Action:  action,
		Message: "no spec provider registered",
	}
}

// NewPathError creates an EngineError for a dotted-path lookup that hit
// a non-traversable value.
func NewPathError(path, message string) *EngineError {
	return &EngineError{Type: ErrorTypePath, Subject: path, Message: message}
}

// IsConfigError returns true if the error is a malformed route spec.
func IsConfigError(err error) bool {
	var e *EngineError
	return errors.As(err, &e) && e.Type == ErrorTypeConfig
}

// IsMissingArgumentError returns true if the error is a missing required argument.
func IsMissingArgumentError(err error) bool {
	var e *EngineError
	return errors.As(err, &e) && e.Type == ErrorTypeMissingArgument
}

// IsValidationError returns true if the error is a checker rejection.
func IsValidationError(err error) bool {
	var e *EngineError
	return errors.As(err, &e) && e.Type == ErrorTypeValidation
}

// IsUnknownActionError returns true if the error is an unresolved action name.
func IsUnknownActionError(err error) bool {
	var e *EngineError
	return errors.As(err, &e) && e.Type == ErrorTypeUnknownAction
}

// IsPathError returns true if the error is a failed dotted-path traversal.
func IsPathError(err error) bool {
	var e *EngineError
	return errors.As(err, &e) && e.Type == ErrorTypePath
}
