package errors

import (
	stderrors "errors"
	"fmt"
)

// Application error types organized by category for better error handling

type ErrorType string

// Provider errors - expected inputs to the fallback logic
const (
	ProviderUnavailable         ErrorType = "PROVIDER_UNAVAILABLE"
	ProviderUnsupportedLocation ErrorType = "PROVIDER_UNSUPPORTED_LOCATION"
	ProviderMisconfigured       ErrorType = "PROVIDER_MISCONFIGURED"
	AllProvidersExhausted       ErrorType = "ALL_PROVIDERS_EXHAUSTED"
)

// Request/system errors
const (
	ValidationError    ErrorType = "VALIDATION_ERROR"
	ConfigurationError ErrorType = "CONFIGURATION_ERROR"
)

type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(errorType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
	}
}

func Wrap(errorType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// IsType reports whether err carries the given error type anywhere in its
// chain. Fallback decisions are made on this, never on string matching.
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// TypeOf returns the error type carried anywhere in err's chain, or an
// empty type when err is not an AppError.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// Provider error constructors
func NewProviderUnavailable(message string, cause error) *AppError {
	return Wrap(ProviderUnavailable, message, cause)
}

func NewProviderUnsupportedLocation(message string) *AppError {
	return New(ProviderUnsupportedLocation, message)
}

func NewProviderMisconfigured(message string) *AppError {
	return New(ProviderMisconfigured, message)
}

func NewAllProvidersExhausted(message string, cause error) *AppError {
	return Wrap(AllProvidersExhausted, message, cause)
}

// Request/system error constructors
func NewValidationError(message string) *AppError {
	return New(ValidationError, message)
}

func NewConfigurationError(message string, cause error) *AppError {
	return Wrap(ConfigurationError, message, cause)
}
