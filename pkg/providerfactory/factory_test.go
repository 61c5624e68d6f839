package providerfactory

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	testutil "lite-hq/lite/internal/providers"
	"lite-hq/lite/pkg/providers"
	"lite-hq/lite/pkg/providers/anthropic"
	"lite-hq/lite/pkg/providers/openai"
	"lite-hq/lite/pkg/providers/openrouter"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		config   providers.ProviderConfig
		wantType providers.ProviderType
		check    func(t *testing.T, p providers.Provider)
	}{
		{
			name:     "openai",
			config:   providers.ProviderConfig{Type: providers.TypeOpenAI, APIKey: "sk-1"},
			wantType: providers.TypeOpenAI,
			check: func(t *testing.T, p providers.Provider) {
				if _, ok := p.(*openai.Provider); !ok {
					t.Errorf("expected *openai.Provider, got %T", p)
				}
			},
		},
		{
			name:     "anthropic",
			config:   providers.ProviderConfig{Type: providers.TypeAnthropic, APIKey: "sk-ant-1"},
			wantType: providers.TypeAnthropic,
			check: func(t *testing.T, p providers.Provider) {
				if _, ok := p.(*anthropic.Provider); !ok {
					t.Errorf("expected *anthropic.Provider, got %T", p)
				}
			},
		},
		{
			name:     "openrouter",
			config:   providers.ProviderConfig{Type: providers.TypeOpenRouter, APIKey: "sk-or-1"},
			wantType: providers.TypeOpenRouter,
			check: func(t *testing.T, p providers.Provider) {
				if _, ok := p.(*openrouter.Provider); !ok {
					t.Errorf("expected *openrouter.Provider, got %T", p)
				}
			},
		},
		{
			name:     "custom uses the openai adapter",
			config:   providers.ProviderConfig{Type: providers.TypeCustom, APIKey: "k", BaseURL: "http://localhost:11434/v1"},
			wantType: providers.TypeCustom,
			check: func(t *testing.T, p providers.Provider) {
				op, ok := p.(*openai.Provider)
				if !ok {
					t.Fatalf("expected *openai.Provider, got %T", p)
				}
				if op.BaseURL() != "http://localhost:11434/v1" {
					t.Errorf("unexpected base URL %s", op.BaseURL())
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.config)
			if err != nil {
				t.Fatalf("NewProvider() failed: %v", err)
			}
			if p.Type() != tt.wantType {
				t.Errorf("expected type %s, got %s", tt.wantType, p.Type())
			}
			tt.check(t, p)
		})
	}
}

func TestNewProvider_Errors(t *testing.T) {
	tests := []struct {
		name        string
		config      providers.ProviderConfig
		wantField   string
		unsupported bool
	}{
		{
			name:        "unknown type",
			config:      providers.ProviderConfig{Type: "gemini", APIKey: "k"},
			wantField:   "type",
			unsupported: true,
		},
		{
			name:      "missing key",
			config:    providers.ProviderConfig{Type: providers.TypeAnthropic},
			wantField: "api_key",
		},
		{
			name:      "custom without base url",
			config:    providers.ProviderConfig{Type: providers.TypeCustom, APIKey: "k"},
			wantField: "base_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(tt.config)

			var cerr *providers.ConfigurationError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected *ConfigurationError, got %T: %v", err, err)
			}
			if cerr.Field != tt.wantField {
				t.Errorf("expected field %s, got %s", tt.wantField, cerr.Field)
			}
			if got := errors.Is(err, providers.ErrUnsupportedProviderType); got != tt.unsupported {
				t.Errorf("errors.Is(ErrUnsupportedProviderType) = %v, want %v", got, tt.unsupported)
			}
		})
	}
}

type countingObserver struct {
	mu    sync.Mutex
	calls int
}

func (o *countingObserver) ObserveProviderRequest(providers.ProviderType, string, int, time.Duration, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
}

func TestNewProvider_Options(t *testing.T) {
	server := testutil.NewMockServer()
	defer server.Close()
	server.SetResponse("/models", testutil.MockResponse{Body: `{"data":[{"id":"gpt-4o"}]}`})

	observer := &countingObserver{}
	p, err := NewProvider(
		testutil.TestConfig(providers.TypeOpenAI, server.URL()),
		WithHTTPClient(&http.Client{Timeout: 5 * time.Second}),
		WithMetrics(observer),
	)
	if err != nil {
		t.Fatalf("NewProvider() failed: %v", err)
	}

	if _, err := p.Models(context.Background()); err != nil {
		t.Fatalf("Models() failed: %v", err)
	}
	if observer.calls != 1 {
		t.Errorf("expected 1 observed request, got %d", observer.calls)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name       string
		config     providers.ProviderConfig
		wantValid  bool
		wantErrors int
	}{
		{"valid openai", providers.ProviderConfig{Type: providers.TypeOpenAI, APIKey: "k"}, true, 0},
		{"valid custom", providers.ProviderConfig{Type: providers.TypeCustom, APIKey: "k", BaseURL: "http://localhost:8080/v1"}, true, 0},
		{"missing key", providers.ProviderConfig{Type: providers.TypeAnthropic}, false, 1},
		{"unknown type and missing key", providers.ProviderConfig{Type: "bogus"}, false, 2},
		{"custom without base url", providers.ProviderConfig{Type: providers.TypeCustom, APIKey: "k"}, false, 1},
		{"relative base url", providers.ProviderConfig{Type: providers.TypeOpenAI, APIKey: "k", BaseURL: "api/v1"}, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateConfig(tt.config)
			if res.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v (errors: %v)", res.Valid, tt.wantValid, res.Errors)
			}
			if len(res.Errors) != tt.wantErrors {
				t.Errorf("expected %d errors, got %v", tt.wantErrors, res.Errors)
			}
		})
	}
}
