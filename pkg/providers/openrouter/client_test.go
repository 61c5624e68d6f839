package openrouter

import (
	"context"
	"errors"
	"math"
	"testing"

	testutil "lite-hq/lite/internal/providers"
	"lite-hq/lite/pkg/providers"
)

func TestNewProvider(t *testing.T) {
	_, err := NewProvider(providers.ProviderConfig{Type: providers.TypeOpenRouter})
	var cerr *providers.ConfigurationError
	if !errors.As(err, &cerr) || cerr.Field != "api_key" {
		t.Fatalf("expected api_key ConfigurationError, got %v", err)
	}

	p, err := NewProvider(providers.ProviderConfig{Type: providers.TypeOpenRouter, APIKey: "sk-or-1"})
	if err != nil {
		t.Fatalf("NewProvider() failed: %v", err)
	}
	if p.Type() != providers.TypeOpenRouter {
		t.Errorf("expected openrouter type, got %s", p.Type())
	}
	if p.BaseURL() != DefaultBaseURL {
		t.Errorf("expected %s, got %s", DefaultBaseURL, p.BaseURL())
	}
}

func TestProvider_AttributionHeaders(t *testing.T) {
	tests := []struct {
		name        string
		custom      map[string]string
		wantReferer string
		wantTitle   string
	}{
		{name: "defaults", wantReferer: "", wantTitle: "Lite"},
		{
			name:        "overridden",
			custom:      map[string]string{"HTTP-Referer": "https://example.org", "x-title": "My App"},
			wantReferer: "https://example.org",
			wantTitle:   "My App",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := testutil.NewMockServer()
			defer server.Close()
			server.SetResponse("/models", testutil.MockResponse{Body: `{"data":[]}`})

			cfg := testutil.TestConfig(providers.TypeOpenRouter, server.URL())
			cfg.CustomHeaders = tt.custom

			p, err := NewProvider(cfg)
			if err != nil {
				t.Fatalf("NewProvider() failed: %v", err)
			}
			if _, err := p.Models(context.Background()); err != nil {
				t.Fatalf("Models() failed: %v", err)
			}

			h := server.LastRequest().Header
			if got := h.Get("Http-Referer"); got != tt.wantReferer {
				t.Errorf("expected HTTP-Referer %q, got %q", tt.wantReferer, got)
			}
			if got := h.Get("X-Title"); got != tt.wantTitle {
				t.Errorf("expected X-Title %q, got %q", tt.wantTitle, got)
			}
			if got := h.Get("Authorization"); got != "Bearer "+cfg.APIKey {
				t.Errorf("unexpected Authorization %q", got)
			}
		})
	}
}

func TestProvider_Models(t *testing.T) {
	server := testutil.NewMockServer()
	defer server.Close()
	server.SetResponse("/models", testutil.MockResponse{Body: `{"data":[
		{"id":"anthropic/claude-3.5-sonnet","name":"Claude 3.5 Sonnet","context_length":200000,
		 "pricing":{"prompt":"0.000003","completion":"0.000015"}},
		{"id":"meta/llama-free","name":"","context_length":8192,
		 "pricing":{"prompt":"0","completion":"0"}},
		{"id":"odd/pricing","name":"Odd","context_length":1000,
		 "pricing":{"prompt":"-","completion":"0.1"}}
	]}`})

	p, _ := NewProvider(testutil.TestConfig(providers.TypeOpenRouter, server.URL()))
	models, err := p.Models(context.Background())
	if err != nil {
		t.Fatalf("Models() failed: %v", err)
	}
	if len(models) != 3 {
		t.Fatalf("expected 3 models, got %d", len(models))
	}

	sonnet := models[0]
	if sonnet.ContextWindow != 200000 || sonnet.Provider != providers.TypeOpenRouter {
		t.Errorf("unexpected model: %+v", sonnet)
	}
	if !sonnet.SupportsChat || !sonnet.SupportsCompletion {
		t.Error("expected both capability flags")
	}
	if sonnet.Pricing == nil || math.Abs(sonnet.Pricing.Prompt-3) > 1e-9 || math.Abs(sonnet.Pricing.Completion-15) > 1e-9 {
		t.Errorf("expected per-1M pricing 3/15, got %+v", sonnet.Pricing)
	}

	if models[1].Name != "meta/llama-free" || models[1].Pricing == nil || models[1].Pricing.Prompt != 0 {
		t.Errorf("unexpected free model: %+v", models[1])
	}
	if models[2].Pricing != nil {
		t.Errorf("expected unparsable pricing to be omitted, got %+v", models[2].Pricing)
	}
}

func TestProvider_ChatCompletionStream(t *testing.T) {
	server := testutil.NewMockServer()
	defer server.Close()
	server.SetResponse("/chat/completions", testutil.MockResponse{
		Events: []string{
			testutil.OpenAIChatChunk("Hi", ""),
			testutil.OpenAIChatChunk("!", "stop"),
		},
	})

	p, _ := NewProvider(testutil.TestConfig(providers.TypeOpenRouter, server.URL()))
	stream, err := p.ChatCompletionStream(context.Background(), testutil.ChatRequest("openai/gpt-4o", testutil.UserMessage("hi")))
	if err != nil {
		t.Fatalf("ChatCompletionStream() failed: %v", err)
	}

	chunks, err := testutil.CollectStream(t, stream)
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	if testutil.JoinDeltas(chunks) != "Hi!" || chunks[len(chunks)-1].FinishReason != providers.FinishReasonStop {
		t.Errorf("unexpected chunks: %+v", chunks)
	}
	if server.LastRequest().Header.Get("X-Title") != DefaultTitle {
		t.Error("expected X-Title on chat requests")
	}
}
