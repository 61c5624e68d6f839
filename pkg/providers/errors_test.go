package providers

import (
	"errors"
	"fmt"
	"testing"
)

func TestTransportError(t *testing.T) {
	t.Run("with status code", func(t *testing.T) {
		err := &TransportError{
			Provider:   TypeOpenAI,
			StatusCode: 500,
			Message:    "internal error",
		}

		expected := `provider "openai" error (status 500): internal error`
		if err.Error() != expected {
			t.Errorf("expected %q, got %q", expected, err.Error())
		}
	})

	t.Run("without status code", func(t *testing.T) {
		err := &TransportError{
			Provider: TypeAnthropic,
			Message:  "connection refused",
		}

		expected := `provider "anthropic" error: connection refused`
		if err.Error() != expected {
			t.Errorf("expected %q, got %q", expected, err.Error())
		}
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("network timeout")
		err := fmt.Errorf("listing models: %w", &TransportError{
			Provider: TypeOpenRouter,
			Message:  "request failed",
			Cause:    cause,
		})

		if !errors.Is(err, cause) {
			t.Error("expected error to wrap cause")
		}
		if StatusCode(err) != 0 {
			t.Errorf("expected status 0, got %d", StatusCode(err))
		}
	})
}

func TestConfigurationError(t *testing.T) {
	err := &ConfigurationError{
		Provider: TypeCustom,
		Field:    "base_url",
		Message:  "base URL is required for custom providers",
	}

	expected := `provider "custom" configuration error in base_url: base URL is required for custom providers`
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}

	wrapped := &ConfigurationError{Field: "type", Message: "bad", Cause: ErrUnsupportedProviderType}
	if !errors.Is(wrapped, ErrUnsupportedProviderType) {
		t.Error("expected wrapped sentinel to match")
	}
}

func TestUnsupportedOperationError(t *testing.T) {
	err := error(&UnsupportedOperationError{Provider: TypeAnthropic, Operation: "legacy completion"})

	if !errors.Is(err, ErrUnsupportedOperation) {
		t.Error("expected errors.Is to match ErrUnsupportedOperation")
	}

	expected := `provider "anthropic" does not support legacy completion`
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}

func TestStatusCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", &TransportError{Provider: TypeOpenAI, StatusCode: 429})
	if got := StatusCode(err); got != 429 {
		t.Errorf("expected 429, got %d", got)
	}
	if got := StatusCode(errors.New("plain")); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}
