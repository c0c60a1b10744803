package errors

import (
	stderrors "errors"
	"fmt"
)

// ScopeError is the structured error type for countryscope.
// It provides rich context for error handling, logging, and user presentation.
type ScopeError struct {
	// Code is the unique error code (e.g., "ERR_304_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Network, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates the failure is transient.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *ScopeError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ScopeError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with ScopeError.
func (e *ScopeError) Is(target error) bool {
	if t, ok := target.(*ScopeError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *ScopeError) WithDetail(key, value string) *ScopeError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *ScopeError) WithSuggestion(suggestion string) *ScopeError {
	e.Suggestion = suggestion
	return e
}

// New creates a new ScopeError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *ScopeError {
	return &ScopeError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a ScopeError from an existing error.
// The error's message becomes the ScopeError message.
func Wrap(code string, err error) *ScopeError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *ScopeError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// NetworkError creates a network-related error.
func NetworkError(message string, cause error) *ScopeError {
	return New(ErrCodeNetworkUnavailable, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *ScopeError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *ScopeError {
	return New(ErrCodeInternal, message, cause)
}

// as finds the first ScopeError in err's chain.
func as(err error) (*ScopeError, bool) {
	var se *ScopeError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsRetryable reports whether err carries a transient failure code.
func IsRetryable(err error) bool {
	if se, ok := as(err); ok {
		return se.Retryable
	}
	return false
}

// IsNotFound reports whether err means the upstream had no match.
func IsNotFound(err error) bool {
	return GetCode(err) == ErrCodeNotFound
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	if se, ok := as(err); ok {
		return se.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a ScopeError.
// Returns empty string if err carries none.
func GetCode(err error) string {
	if se, ok := as(err); ok {
		return se.Code
	}
	return ""
}

// GetCategory extracts the category from a ScopeError.
// Returns empty string if err carries none.
func GetCategory(err error) Category {
	if se, ok := as(err); ok {
		return se.Category
	}
	return ""
}
