package providers

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedOperation marks a capability an adapter does not have.
	ErrUnsupportedOperation = errors.New("operation not supported by provider")

	// ErrUnsupportedProviderType is returned by the factory for types
	// outside the supported set.
	ErrUnsupportedProviderType = errors.New("unsupported provider type")
)

// ConfigurationError reports missing or invalid provider configuration.
// It is raised at construction time, before any network access.
type ConfigurationError struct {
	// Provider is the provider type being configured (may be empty)
	Provider ProviderType

	// Field is the offending configuration field
	Field string

	// Message describes the problem
	Message string

	// Cause is an optional underlying error
	Cause error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("provider %q configuration error in %s: %s", e.Provider, e.Field, e.Message)
	}
	return fmt.Sprintf("configuration error in %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// TransportError is the single normalized shape for HTTP failures: non-2xx
// responses and network errors alike. Vendor error JSON never reaches
// callers in raw form; its message is lifted into Message.
type TransportError struct {
	// Provider is the provider type that issued the request
	Provider ProviderType

	// StatusCode is the HTTP status, or 0 when no response was received
	StatusCode int

	// Message is the vendor-supplied message, the status text, or the
	// network error text
	Message string

	// Body is the raw response body, if any
	Body []byte

	// Cause is the underlying error, if any
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %q error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// UnsupportedOperationError names the operation an adapter cannot perform.
// errors.Is(err, ErrUnsupportedOperation) holds for every value.
type UnsupportedOperationError struct {
	Provider  ProviderType
	Operation string
}

// Error implements the error interface.
func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("provider %q does not support %s", e.Provider, e.Operation)
}

// Unwrap returns ErrUnsupportedOperation.
func (e *UnsupportedOperationError) Unwrap() error {
	return ErrUnsupportedOperation
}

// ValidationError reports a request that cannot be sent as given.
type ValidationError struct {
	// Field is the request field that failed validation
	Field string

	// Message describes the validation failure
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// StatusCode extracts the HTTP status from a TransportError anywhere in
// err's chain. It returns 0 if there is none.
func StatusCode(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}
