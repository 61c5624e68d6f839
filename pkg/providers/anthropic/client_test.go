package anthropic

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"testing"

	testutil "lite-hq/lite/internal/providers"
	"lite-hq/lite/pkg/providers"
)

func newTestProvider(t *testing.T, baseURL string) *Provider {
	t.Helper()

	p, err := NewProvider(testutil.TestConfig(providers.TypeAnthropic, baseURL))
	if err != nil {
		t.Fatalf("NewProvider() failed: %v", err)
	}
	return p
}

func TestNewProvider(t *testing.T) {
	_, err := NewProvider(providers.ProviderConfig{Type: providers.TypeAnthropic})
	var cerr *providers.ConfigurationError
	if !errors.As(err, &cerr) || cerr.Field != "api_key" {
		t.Fatalf("expected api_key ConfigurationError, got %v", err)
	}

	p, err := NewProvider(providers.ProviderConfig{Type: providers.TypeAnthropic, APIKey: "k"})
	if err != nil {
		t.Fatalf("NewProvider() failed: %v", err)
	}
	if p.BaseURL() != DefaultBaseURL {
		t.Errorf("expected default base URL, got %s", p.BaseURL())
	}
	if p.Type() != providers.TypeAnthropic {
		t.Errorf("expected anthropic type, got %s", p.Type())
	}
}

func TestProvider_Models(t *testing.T) {
	server := testutil.NewMockServer()
	defer server.Close()

	p := newTestProvider(t, server.URL())
	models, err := p.Models(context.Background())
	if err != nil {
		t.Fatalf("Models() failed: %v", err)
	}

	if len(models) != 5 {
		t.Fatalf("expected 5 models, got %d", len(models))
	}
	if server.RequestCount() != 0 {
		t.Error("expected static catalog without network access")
	}

	haiku := models[4]
	if haiku.ID != "claude-3-haiku-20240307" || haiku.Pricing.Prompt != 0.25 || haiku.Pricing.Completion != 1.25 {
		t.Errorf("unexpected haiku entry: %+v", haiku)
	}
	for _, m := range models {
		if m.ContextWindow != 200000 || !m.SupportsChat || m.SupportsCompletion || m.Provider != providers.TypeAnthropic {
			t.Errorf("unexpected model metadata: %+v", m)
		}
	}

	models[0].Name = "mutated"
	again, _ := p.Models(context.Background())
	if again[0].Name != "Claude 3.5 Sonnet" {
		t.Error("expected catalog to be copied per call")
	}
}

func TestProvider_ChatCompletion(t *testing.T) {
	server := testutil.NewMockServer()
	defer server.Close()
	server.SetResponse("/messages", testutil.MockResponse{Body: `{
		"id":"msg_01","type":"message","role":"assistant","model":"claude-3-5-sonnet-20241022",
		"content":[{"type":"text","text":"Hello"},{"type":"text","text":", world"}],
		"stop_reason":"end_turn",
		"usage":{"input_tokens":10,"output_tokens":4}
	}`})

	p := newTestProvider(t, server.URL())

	req := testutil.ChatRequest("claude-3-5-sonnet-20241022",
		providers.Message{Role: providers.RoleSystem, Content: "Be brief."},
		testutil.UserMessage("hi"),
		providers.Message{Role: providers.RoleSystem, Content: "Be kind."},
	)
	req.Stop = providers.StopString("END")

	resp, err := p.ChatCompletion(context.Background(), req)
	if err != nil {
		t.Fatalf("ChatCompletion() failed: %v", err)
	}

	if resp.Content != "Hello, world" || resp.FinishReason != providers.FinishReasonStop {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Usage == nil || resp.Usage.PromptTokens != 10 || resp.Usage.CompletionTokens != 4 || resp.Usage.TotalTokens != 14 {
		t.Errorf("unexpected usage: %+v", resp.Usage)
	}

	recorded := server.LastRequest()
	if recorded.Header.Get("x-api-key") != "sk-test-key-0123456789" {
		t.Errorf("unexpected x-api-key %q", recorded.Header.Get("x-api-key"))
	}
	if recorded.Header.Get("anthropic-version") != APIVersion {
		t.Errorf("unexpected anthropic-version %q", recorded.Header.Get("anthropic-version"))
	}
	if recorded.Header.Get("Authorization") != "" {
		t.Error("expected no Authorization header")
	}

	body := recorded.JSON()
	if body["system"] != "Be brief.\n\nBe kind." {
		t.Errorf("unexpected system %q", body["system"])
	}
	if body["max_tokens"] != float64(DefaultMaxTokens) {
		t.Errorf("expected default max_tokens, got %v", body["max_tokens"])
	}
	msgs, _ := body["messages"].([]interface{})
	if len(msgs) != 1 {
		t.Fatalf("expected system messages to be removed, got %v", body["messages"])
	}
	stops, _ := body["stop_sequences"].([]interface{})
	if len(stops) != 1 || stops[0] != "END" {
		t.Errorf("expected stop_sequences [END], got %v", body["stop_sequences"])
	}
}

func TestProvider_ChatCompletionMaxTokens(t *testing.T) {
	server := testutil.NewMockServer()
	defer server.Close()
	server.SetResponse("/messages", testutil.MockResponse{Body: `{"id":"m","content":[],"stop_reason":"max_tokens"}`})

	p := newTestProvider(t, server.URL())

	maxTokens := 32
	req := testutil.ChatRequest("claude-3-haiku-20240307", testutil.UserMessage("hi"))
	req.MaxTokens = &maxTokens

	resp, err := p.ChatCompletion(context.Background(), req)
	if err != nil {
		t.Fatalf("ChatCompletion() failed: %v", err)
	}
	if resp.FinishReason != providers.FinishReasonLength || resp.Usage != nil {
		t.Errorf("unexpected response: %+v", resp)
	}
	if server.LastRequest().JSON()["max_tokens"] != float64(32) {
		t.Errorf("expected max_tokens 32, got %v", server.LastRequest().JSON()["max_tokens"])
	}
	if _, ok := server.LastRequest().JSON()["system"]; ok {
		t.Error("expected system to be omitted without system messages")
	}
}

func TestProvider_OnlySystemMessages(t *testing.T) {
	server := testutil.NewMockServer()
	defer server.Close()

	p := newTestProvider(t, server.URL())
	_, err := p.ChatCompletion(context.Background(), testutil.ChatRequest("claude-3-haiku-20240307",
		providers.Message{Role: providers.RoleSystem, Content: "only system"},
	))

	var verr *providers.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	if server.RequestCount() != 0 {
		t.Error("expected no request")
	}
}

func TestProvider_ErrorResponse(t *testing.T) {
	server := testutil.NewMockServer()
	defer server.Close()
	server.SetResponse("/messages", testutil.MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"type":"error","error":{"type":"rate_limit_error","message":"rate limited"}}`,
	})

	p := newTestProvider(t, server.URL())
	_, err := p.ChatCompletion(context.Background(), testutil.ChatRequest("claude-3-haiku-20240307", testutil.UserMessage("hi")))
	testutil.AssertTransportError(t, err, 429, "rate limited")
}

func TestProvider_CompletionUnsupported(t *testing.T) {
	server := testutil.NewMockServer()
	defer server.Close()

	p := newTestProvider(t, server.URL())
	req := &providers.CompletionRequest{Model: "claude-3-haiku-20240307", Prompt: "hi"}

	if _, err := p.Completion(context.Background(), req); !errors.Is(err, providers.ErrUnsupportedOperation) {
		t.Errorf("Completion: expected ErrUnsupportedOperation, got %v", err)
	}
	stream, err := p.CompletionStream(context.Background(), req)
	if !errors.Is(err, providers.ErrUnsupportedOperation) {
		t.Errorf("CompletionStream: expected ErrUnsupportedOperation, got %v", err)
	}
	if stream != nil {
		t.Error("expected nil stream")
	}
	if server.RequestCount() != 0 {
		t.Error("expected no network access for unsupported operations")
	}
}

func TestMapStopReason(t *testing.T) {
	tests := map[string]providers.FinishReason{
		"end_turn":      providers.FinishReasonStop,
		"stop_sequence": providers.FinishReasonStop,
		"max_tokens":    providers.FinishReasonLength,
		"tool_use":      providers.FinishReasonNone,
		"":              providers.FinishReasonNone,
	}
	for in, want := range tests {
		if got := MapStopReason(in); got != want {
			t.Errorf("MapStopReason(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewMessagesRequest_SystemExtraction(t *testing.T) {
	sys := func(c string) providers.Message { return providers.Message{Role: providers.RoleSystem, Content: c} }
	user := func(c string) providers.Message { return providers.Message{Role: providers.RoleUser, Content: c} }
	asst := func(c string) providers.Message { return providers.Message{Role: providers.RoleAssistant, Content: c} }

	tests := []struct {
		name       string
		messages   []providers.Message
		wantSystem string
		want       []Message
	}{
		{
			name:       "no system",
			messages:   []providers.Message{user("U1"), asst("A1")},
			wantSystem: "",
			want:       []Message{{"user", "U1"}, {"assistant", "A1"}},
		},
		{
			name:       "interleaved system messages",
			messages:   []providers.Message{sys("S1"), user("U1"), sys("S2"), asst("A1")},
			wantSystem: "S1\n\nS2",
			want:       []Message{{"user", "U1"}, {"assistant", "A1"}},
		},
		{
			name:       "system last",
			messages:   []providers.Message{user("U1"), asst("A1"), user("U2"), sys("S1")},
			wantSystem: "S1",
			want:       []Message{{"user", "U1"}, {"assistant", "A1"}, {"user", "U2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newMessagesRequest(testutil.ChatRequest("claude-3-5-haiku-20241022", tt.messages...), false)
			if err != nil {
				t.Fatalf("newMessagesRequest() failed: %v", err)
			}
			if got.System != tt.wantSystem {
				t.Errorf("System = %q, want %q", got.System, tt.wantSystem)
			}
			if !slices.Equal(got.Messages, tt.want) {
				t.Errorf("Messages = %v, want %v", got.Messages, tt.want)
			}
		})
	}
}
