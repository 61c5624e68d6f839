package providers

import (
	"encoding/json"
	"fmt"
	"iter"
	"time"
)

// ProviderType identifies the vendor API an adapter speaks.
type ProviderType string

// Supported provider types.
const (
	TypeOpenAI     ProviderType = "openai"
	TypeAnthropic  ProviderType = "anthropic"
	TypeOpenRouter ProviderType = "openrouter"
	TypeCustom     ProviderType = "custom"
)

// SupportedTypes lists every provider type the factory can construct.
var SupportedTypes = []ProviderType{TypeOpenAI, TypeAnthropic, TypeOpenRouter, TypeCustom}

// IsSupported reports whether t is one of SupportedTypes.
func (t ProviderType) IsSupported() bool {
	for _, s := range SupportedTypes {
		if t == s {
			return true
		}
	}
	return false
}

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single conversation turn. Order within a slice is significant.
type Message struct {
	// Role is one of RoleSystem, RoleUser or RoleAssistant.
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// FinishReason is the normalized reason a generation stopped.
// The zero value means no reason is known yet and serializes as null.
type FinishReason string

// Normalized finish reasons.
const (
	FinishReasonNone          FinishReason = ""
	FinishReasonStop          FinishReason = "stop"
	FinishReasonLength        FinishReason = "length"
	FinishReasonContentFilter FinishReason = "content_filter"
	FinishReasonToolCalls     FinishReason = "tool_calls"
)

// MarshalJSON encodes FinishReasonNone as null.
func (f FinishReason) MarshalJSON() ([]byte, error) {
	if f == FinishReasonNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(f))
}

// UnmarshalJSON accepts a string or null.
func (f *FinishReason) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = FinishReasonNone
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = FinishReason(s)
	return nil
}

// Stop holds one or more stop sequences. A vendor may accept either a
// single string or a list; Stop remembers which form the caller used.
type Stop struct {
	values []string
	single bool
}

// StopString returns a Stop holding a single string.
func StopString(s string) Stop {
	return Stop{values: []string{s}, single: true}
}

// StopList returns a Stop holding a list of sequences.
func StopList(values ...string) Stop {
	return Stop{values: append([]string(nil), values...)}
}

// Values returns the stop sequences in list form.
func (s Stop) Values() []string {
	return s.values
}

// IsZero reports whether no stop sequences are set.
func (s Stop) IsZero() bool {
	return len(s.values) == 0
}

// MarshalJSON writes a string for single-string stops and a list otherwise.
func (s Stop) MarshalJSON() ([]byte, error) {
	if s.IsZero() {
		return []byte("null"), nil
	}
	if s.single {
		return json.Marshal(s.values[0])
	}
	return json.Marshal(s.values)
}

// UnmarshalJSON accepts a string, a list of strings or null.
func (s *Stop) UnmarshalJSON(data []byte) error {
	switch {
	case string(data) == "null":
		*s = Stop{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = StopString(v)
		return nil
	default:
		var v []string
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("stop must be a string or a list of strings: %w", err)
		}
		*s = StopList(v...)
		return nil
	}
}

// SamplingParams are the optional generation controls shared by chat and
// legacy completion requests. Nil fields are omitted on the wire.
type SamplingParams struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	MaxTokens        *int     `json:"max_tokens,omitempty"`
	TopP             *float64 `json:"top_p,omitempty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64 `json:"presence_penalty,omitempty"`
}

// ChatCompletionRequest is a vendor-neutral chat request.
type ChatCompletionRequest struct {
	// Model is the vendor model id (e.g. "gpt-4o", "claude-3-5-sonnet-20241022").
	Model string `json:"model"`

	// Messages is the ordered conversation.
	Messages []Message `json:"messages"`

	SamplingParams

	// Stop holds optional stop sequences.
	Stop Stop `json:"stop,omitzero"`

	// Stream is set by the adapter; callers choose streaming by calling
	// the stream variant of an operation.
	Stream bool `json:"stream,omitempty"`
}

// CompletionRequest is a vendor-neutral legacy text completion request.
type CompletionRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`

	SamplingParams

	Stop   Stop `json:"stop,omitzero"`
	Stream bool `json:"stream,omitempty"`
}

// Usage is vendor-reported token usage, passed through unchanged.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// ChatCompletionResponse is a normalized chat response.
type ChatCompletionResponse struct {
	ID           string       `json:"id"`
	Model        string       `json:"model"`
	Content      string       `json:"content"`
	FinishReason FinishReason `json:"finishReason"`
	Usage        *Usage       `json:"usage,omitempty"`
}

// CompletionResponse is a normalized legacy completion response.
type CompletionResponse struct {
	ID           string       `json:"id"`
	Model        string       `json:"model"`
	Text         string       `json:"text"`
	FinishReason FinishReason `json:"finishReason"`
	Usage        *Usage       `json:"usage,omitempty"`
}

// StreamChunk is one incremental piece of a streamed generation.
type StreamChunk struct {
	// Delta is the text fragment. It may be empty, for example on the
	// chunk that only carries a finish reason.
	Delta string `json:"delta"`

	// FinishReason is set on the chunk that ends the generation.
	FinishReason FinishReason `json:"finishReason"`
}

// Stream is a lazy, single-use sequence of chunks. Ranging over it drives
// the underlying HTTP response; breaking out of the loop releases it. A
// Stream that is never ranged over keeps the response open.
// A non-nil error is always the last element yielded.
type Stream = iter.Seq2[StreamChunk, error]

// Pricing is the price in USD per one million tokens.
type Pricing struct {
	Prompt     float64 `json:"prompt"`
	Completion float64 `json:"completion"`
}

// Model describes a model a provider can serve.
type Model struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`
	Provider           ProviderType `json:"provider"`
	ContextWindow      int          `json:"contextWindow"`
	SupportsChat       bool         `json:"supportsChat"`
	SupportsCompletion bool         `json:"supportsCompletion"`
	Pricing            *Pricing     `json:"pricing,omitempty"`
}

// ProviderConfig is everything needed to construct an adapter.
type ProviderConfig struct {
	// Type selects the adapter.
	Type ProviderType `json:"type" yaml:"type"`

	// APIKey is the vendor secret. Required.
	APIKey string `json:"apiKey" yaml:"api_key"`

	// BaseURL overrides the vendor default. Required for TypeCustom.
	BaseURL string `json:"baseUrl,omitempty" yaml:"base_url"`

	// Organization is sent as the OpenAI-Organization header when set.
	Organization string `json:"organization,omitempty" yaml:"organization"`

	// CustomHeaders are added to every request, after auth headers.
	CustomHeaders map[string]string `json:"customHeaders,omitempty" yaml:"custom_headers"`

	// Timeout bounds connecting and waiting for response headers. Reading
	// a body, including a stream, is bounded only by the context.
	// Default: 60s
	Timeout time.Duration `json:"-" yaml:"timeout"`
}

// DefaultTimeout is used when ProviderConfig.Timeout is zero.
const DefaultTimeout = 60 * time.Second

// String renders the config without its secret.
func (c ProviderConfig) String() string {
	return fmt.Sprintf("ProviderConfig{type=%s base_url=%q api_key=%s}", c.Type, c.BaseURL, MaskKey(c.APIKey))
}

// MaskKey keeps the first eight characters of a secret.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return key + "..."
	}
	return key[:8] + "..."
}
