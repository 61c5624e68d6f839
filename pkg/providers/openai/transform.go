package openai

import (
	"encoding/json"

	"lite-hq/lite/pkg/providers"
)

// ChatRequest is the /chat/completions body.
type ChatRequest struct {
	Model    string              `json:"model"`
	Messages []providers.Message `json:"messages"`
	providers.SamplingParams
	Stop   providers.Stop `json:"stop,omitzero"`
	Stream bool           `json:"stream"`
}

// CompletionRequest is the /completions body.
type CompletionRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	providers.SamplingParams
	Stop   providers.Stop `json:"stop,omitzero"`
	Stream bool           `json:"stream"`
}

func newChatRequest(req *providers.ChatCompletionRequest, stream bool) *ChatRequest {
	return &ChatRequest{
		Model:          req.Model,
		Messages:       req.Messages,
		SamplingParams: req.SamplingParams,
		Stop:           req.Stop,
		Stream:         stream,
	}
}

func newCompletionRequest(req *providers.CompletionRequest, stream bool) *CompletionRequest {
	return &CompletionRequest{
		Model:          req.Model,
		Prompt:         req.Prompt,
		SamplingParams: req.SamplingParams,
		Stop:           req.Stop,
		Stream:         stream,
	}
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func (u *usage) normalize() *providers.Usage {
	if u == nil {
		return nil
	}
	return &providers.Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *usage `json:"usage"`
}

func (r *chatResponse) normalize() *providers.ChatCompletionResponse {
	out := &providers.ChatCompletionResponse{
		ID:    r.ID,
		Model: r.Model,
		Usage: r.Usage.normalize(),
	}
	if len(r.Choices) > 0 {
		out.Content = r.Choices[0].Message.Content
		out.FinishReason = MapFinishReason(r.Choices[0].FinishReason)
	}
	return out
}

type completionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *usage `json:"usage"`
}

func (r *completionResponse) normalize() *providers.CompletionResponse {
	out := &providers.CompletionResponse{
		ID:    r.ID,
		Model: r.Model,
		Usage: r.Usage.normalize(),
	}
	if len(r.Choices) > 0 {
		out.Text = r.Choices[0].Text
		out.FinishReason = MapFinishReason(r.Choices[0].FinishReason)
	}
	return out
}

// streamEvent covers both chat (delta.content) and legacy (text) chunks.
type streamEvent struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func decodeChatChunk(payload string) (providers.StreamChunk, bool) {
	var ev streamEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil || len(ev.Choices) == 0 {
		return providers.StreamChunk{}, false
	}
	c := ev.Choices[0]
	return providers.StreamChunk{Delta: c.Delta.Content, FinishReason: MapFinishReason(c.FinishReason)}, true
}

func decodeCompletionChunk(payload string) (providers.StreamChunk, bool) {
	var ev streamEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil || len(ev.Choices) == 0 {
		return providers.StreamChunk{}, false
	}
	c := ev.Choices[0]
	return providers.StreamChunk{Delta: c.Text, FinishReason: MapFinishReason(c.FinishReason)}, true
}

// MapFinishReason keeps stop, length and content_filter; everything else,
// tool_calls included, is unknown.
func MapFinishReason(reason string) providers.FinishReason {
	switch reason {
	case "stop":
		return providers.FinishReasonStop
	case "length":
		return providers.FinishReasonLength
	case "content_filter":
		return providers.FinishReasonContentFilter
	default:
		return providers.FinishReasonNone
	}
}
