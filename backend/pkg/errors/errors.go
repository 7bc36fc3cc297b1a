package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeConnection represents failures to establish or keep a session
	ErrorTypeConnection ErrorType = "connection"
	// ErrorTypeExecution represents statements rejected or failed by the store
	ErrorTypeExecution ErrorType = "execution"
	// ErrorTypeValidation represents bad input caught before a statement is sent
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeNotFound represents lookups by identifier that matched nothing
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeNotImplemented represents operations the connector does not support
	ErrorTypeNotImplemented ErrorType = "not_implemented"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// Kind returns the error category
func (e *BaseError) Kind() ErrorType {
	return e.Type
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Connection Errors

// ErrNotConnected is returned when an operation needs a session and none exists
var ErrNotConnected = NewBaseError(ErrorTypeConnection, "no active session", nil)

// ErrConnectionFailed is returned when a session cannot be established or has gone stale
type ErrConnectionFailed struct {
	*BaseError
	URI string
}

func NewConnectionFailed(uri string, err error) *ErrConnectionFailed {
	return &ErrConnectionFailed{
		BaseError: NewBaseError(ErrorTypeConnection, fmt.Sprintf("failed to connect to %s", uri), err),
		URI:       uri,
	}
}

// Execution Errors

// ErrExecutionFailed is returned when the store rejects or fails a statement
type ErrExecutionFailed struct {
	*BaseError
	Statement string
}

func NewExecutionFailed(statement string, err error) *ErrExecutionFailed {
	return &ErrExecutionFailed{
		BaseError: NewBaseError(ErrorTypeExecution, fmt.Sprintf("statement failed: %s", statement), err),
		Statement: statement,
	}
}

// Validation Errors

// ErrValidationFailed is returned when input cannot be translated into a statement
type ErrValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewValidationFailed(field, reason string) *ErrValidationFailed {
	return &ErrValidationFailed{
		BaseError: NewBaseError(ErrorTypeValidation, fmt.Sprintf("invalid %s: %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// NewMissingIdentifier reports an operation keyed on id that received none
func NewMissingIdentifier(operation string) *ErrValidationFailed {
	return NewValidationFailed("id", fmt.Sprintf("%s requires an identifier", operation))
}

// ErrRecordNotFound is returned when no node carries the requested identifier
type ErrRecordNotFound struct {
	*BaseError
	Model string
	ID    any
}

func NewRecordNotFound(model string, id any) *ErrRecordNotFound {
	return &ErrRecordNotFound{
		BaseError: NewBaseError(ErrorTypeNotFound, fmt.Sprintf("%s not found: %v", model, id), nil),
		Model:     model,
		ID:        id,
	}
}

// ErrNotImplemented is returned for operations or filter features the connector does not support
type ErrNotImplemented struct {
	*BaseError
	Operation string
}

func NewNotImplemented(operation string) *ErrNotImplemented {
	return &ErrNotImplemented{
		BaseError: NewBaseError(ErrorTypeNotImplemented, fmt.Sprintf("not supported: %s", operation), nil),
		Operation: operation,
	}
}

// Context Errors

// ErrContextCancelled is returned when context is cancelled
type ErrContextCancelled struct {
	*BaseError
	Operation string
}

func NewContextCancelled(operation string, err error) *ErrContextCancelled {
	return &ErrContextCancelled{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context cancelled: %s", operation), err),
		Operation: operation,
	}
}

// ErrContextTimeout is returned when context times out
type ErrContextTimeout struct {
	*BaseError
	Operation string
	Timeout   time.Duration
}

func NewContextTimeout(operation string, timeout time.Duration, err error) *ErrContextTimeout {
	return &ErrContextTimeout{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context timeout: %s (timeout: %v)", operation, timeout), err),
		Operation: operation,
		Timeout:   timeout,
	}
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

// kinded is satisfied by BaseError and every type embedding it
type kinded interface {
	Kind() ErrorType
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}
	if k, ok := err.(kinded); ok && k.Kind() == errType {
		return true
	}
	// Check wrapped errors
	if wrapped, ok := err.(interface{ Unwrap() error }); ok {
		return IsErrorType(wrapped.Unwrap(), errType)
	}
	return false
}

// TypeOf returns the category of the outermost typed error in the chain, or "".
func TypeOf(err error) ErrorType {
	for err != nil {
		if k, ok := err.(kinded); ok {
			return k.Kind()
		}
		wrapped, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = wrapped.Unwrap()
	}
	return ""
}
