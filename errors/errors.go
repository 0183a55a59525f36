// Package errors provides standardized error handling for the Synapse runtime.
// It classifies failures into the recoverable categories the runtime cares
// about (constraint, schema, serialization, registry, transient substrate)
// and provides helpers for consistent error wrapping across packages.
package errors

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorConstraint represents user-input validation failures. The proposed
	// value is rejected and the previous value remains authoritative.
	ErrorConstraint ErrorClass = iota
	// ErrorSchema represents malformed pipeline-author declarations. The
	// offending pipeline type is excluded; others are unaffected.
	ErrorSchema
	// ErrorSerialization represents an unencodable or undecodable result.
	// The offending write or read is dropped; channel state is unaffected.
	ErrorSerialization
	// ErrorRegistry represents duplicate or unknown type identifiers.
	ErrorRegistry
	// ErrorTransient represents temporary substrate failures that may be
	// retried (connection loss, timeouts).
	ErrorTransient
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorConstraint:
		return "constraint"
	case ErrorSchema:
		return "schema"
	case ErrorSerialization:
		return "serialization"
	case ErrorRegistry:
		return "registry"
	case ErrorTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Constraint validation errors
	ErrOutOfRange      = errors.New("value out of range")
	ErrTypeMismatch    = errors.New("value has wrong type")
	ErrNotAnOption     = errors.New("value is not a listed option")
	ErrPatternMismatch = errors.New("value does not match pattern")
	ErrUnknownSetting  = errors.New("unknown setting")

	// Schema declaration errors
	ErrInvalidDefault = errors.New("default value fails its own constraint")
	ErrInvalidSchema  = errors.New("invalid schema declaration")
	ErrDuplicateField = errors.New("duplicate field name")

	// Registry errors
	ErrDuplicateType    = errors.New("type already registered")
	ErrUnknownType      = errors.New("unknown type")
	ErrRegistryScanning = errors.New("discovery pass in progress")

	// Result serialization errors
	ErrUnsupportedPrimitive   = errors.New("unsupported primitive type")
	ErrUnregisteredResultType = errors.New("result type not registered")
	ErrUnencodableField       = errors.New("field cannot be encoded")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingConfig = errors.New("missing required configuration")

	// Substrate errors
	ErrNoConnection   = errors.New("no connection available")
	ErrConnectionLost = errors.New("connection lost")
	ErrKeyNotFound    = errors.New("key not found")
)

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// Classify returns the error class for an error. Unclassified errors default
// to transient so substrate retry logic gets a chance at them.
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorTransient
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class
	}

	switch {
	case errors.Is(err, ErrOutOfRange),
		errors.Is(err, ErrTypeMismatch),
		errors.Is(err, ErrNotAnOption),
		errors.Is(err, ErrPatternMismatch),
		errors.Is(err, ErrUnknownSetting):
		return ErrorConstraint
	case errors.Is(err, ErrInvalidDefault),
		errors.Is(err, ErrInvalidSchema),
		errors.Is(err, ErrDuplicateField):
		return ErrorSchema
	case errors.Is(err, ErrUnsupportedPrimitive),
		errors.Is(err, ErrUnregisteredResultType),
		errors.Is(err, ErrUnencodableField):
		return ErrorSerialization
	case errors.Is(err, ErrDuplicateType),
		errors.Is(err, ErrUnknownType),
		errors.Is(err, ErrRegistryScanning):
		return ErrorRegistry
	}

	return ErrorTransient
}

// IsConstraint checks if an error is a constraint validation failure
func IsConstraint(err error) bool {
	return err != nil && Classify(err) == ErrorConstraint
}

// IsSchema checks if an error is a schema declaration failure
func IsSchema(err error) bool {
	return err != nil && Classify(err) == ErrorSchema
}

// IsSerialization checks if an error is a result serialization failure
func IsSerialization(err error) bool {
	return err != nil && Classify(err) == ErrorSerialization
}

// IsRegistry checks if an error is a registry operation failure
func IsRegistry(err error) bool {
	return err != nil && Classify(err) == ErrorRegistry
}

// IsTransient checks if an error is transient and may be retried
func IsTransient(err error) bool {
	return err != nil && Classify(err) == ErrorTransient
}

// newClassified creates a new classified error
// This is an internal helper - use the Wrap* functions instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapConstraint wraps an error as a constraint validation failure
func WrapConstraint(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorConstraint, wrappedErr, component, method, wrappedErr.Error())
}

// WrapSchema wraps an error as a schema declaration failure
func WrapSchema(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorSchema, wrappedErr, component, method, wrappedErr.Error())
}

// WrapSerialization wraps an error as a result serialization failure
func WrapSerialization(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorSerialization, wrappedErr, component, method, wrappedErr.Error())
}

// WrapRegistry wraps an error as a registry operation failure
func WrapRegistry(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorRegistry, wrappedErr, component, method, wrappedErr.Error())
}

// WrapTransient wraps an error as a transient substrate failure
func WrapTransient(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorTransient, wrappedErr, component, method, wrappedErr.Error())
}
