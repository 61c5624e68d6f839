package anthropic

import (
	"strings"

	"lite-hq/lite/pkg/providers"
)

// MessagesRequest is the /messages body.
type MessagesRequest struct {
	Model         string    `json:"model"`
	Messages      []Message `json:"messages"`
	System        string    `json:"system,omitempty"`
	MaxTokens     int       `json:"max_tokens"`
	Temperature   *float64  `json:"temperature,omitempty"`
	TopP          *float64  `json:"top_p,omitempty"`
	StopSequences []string  `json:"stop_sequences,omitempty"`
	Stream        bool      `json:"stream"`
}

// Message is a conversation turn. Only user and assistant roles are valid.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// newMessagesRequest lifts system messages into the system field, joined
// by a blank line, and fills the required max_tokens.
func newMessagesRequest(req *providers.ChatCompletionRequest, stream bool) (*MessagesRequest, error) {
	if err := providers.ValidateChatRequest(req); err != nil {
		return nil, err
	}

	out := &MessagesRequest{
		Model:         req.Model,
		Messages:      make([]Message, 0, len(req.Messages)),
		MaxTokens:     DefaultMaxTokens,
		Temperature:   req.Temperature,
		TopP:          req.TopP,
		StopSequences: req.Stop.Values(),
		Stream:        stream,
	}
	if req.MaxTokens != nil {
		out.MaxTokens = *req.MaxTokens
	}

	var system []string
	for _, msg := range req.Messages {
		if msg.Role == providers.RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		out.Messages = append(out.Messages, Message{Role: msg.Role, Content: msg.Content})
	}
	out.System = strings.Join(system, "\n\n")

	if len(out.Messages) == 0 {
		return nil, &providers.ValidationError{
			Field:   "messages",
			Message: "at least one user or assistant message is required",
		}
	}

	return out, nil
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messagesResponse struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (r *messagesResponse) normalize() *providers.ChatCompletionResponse {
	var b strings.Builder
	for _, block := range r.Content {
		if block.Type == "text" || block.Type == "" {
			b.WriteString(block.Text)
		}
	}

	out := &providers.ChatCompletionResponse{
		ID:           r.ID,
		Model:        r.Model,
		Content:      b.String(),
		FinishReason: MapStopReason(r.StopReason),
	}
	if r.Usage != nil {
		out.Usage = &providers.Usage{
			PromptTokens:     r.Usage.InputTokens,
			CompletionTokens: r.Usage.OutputTokens,
			TotalTokens:      r.Usage.InputTokens + r.Usage.OutputTokens,
		}
	}
	return out
}

// MapStopReason converts an Anthropic stop_reason to the shared vocabulary.
func MapStopReason(reason string) providers.FinishReason {
	switch reason {
	case "end_turn", "stop_sequence":
		return providers.FinishReasonStop
	case "max_tokens":
		return providers.FinishReasonLength
	default:
		return providers.FinishReasonNone
	}
}
