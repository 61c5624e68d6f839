package providers

import (
	"context"
	"fmt"
)

// Provider is the uniform contract every vendor adapter implements.
//
// Adapters are safe for concurrent use. Every operation that touches the
// network takes a context; cancelling it aborts the request, and for the
// stream variants it ends the stream.
//
// The stream variants issue the HTTP request before returning, so an HTTP
// error is reported as the returned error rather than inside the Stream:
//
//	stream, err := p.ChatCompletionStream(ctx, req)
//	if err != nil {
//	    return err
//	}
//	for chunk, err := range stream {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(chunk.Delta)
//	}
//
// A returned Stream holds the open response body until it is ranged over.
// Callers must range over every Stream they receive; a range that breaks
// immediately is enough to release it.
type Provider interface {
	// Type returns the adapter's provider type.
	Type() ProviderType

	// Models lists the models this provider can serve.
	Models(ctx context.Context) ([]Model, error)

	// ChatCompletion sends a chat request and waits for the full response.
	ChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error)

	// ChatCompletionStream sends a chat request and streams the response.
	ChatCompletionStream(ctx context.Context, req *ChatCompletionRequest) (Stream, error)

	// Completion sends a legacy single-prompt request.
	Completion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// CompletionStream streams a legacy single-prompt request.
	CompletionStream(ctx context.Context, req *CompletionRequest) (Stream, error)
}

// ValidateChatRequest checks the fields every adapter needs.
func ValidateChatRequest(req *ChatCompletionRequest) error {
	if req == nil {
		return &ValidationError{Field: "request", Message: "request cannot be nil"}
	}
	if req.Model == "" {
		return &ValidationError{Field: "model", Message: "model is required"}
	}
	if len(req.Messages) == 0 {
		return &ValidationError{Field: "messages", Message: "at least one message is required"}
	}
	for i, m := range req.Messages {
		switch m.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return &ValidationError{Field: "messages", Message: fmt.Sprintf("message %d has invalid role %q", i, m.Role)}
		}
	}
	return nil
}

// ValidateCompletionRequest checks a legacy completion request.
func ValidateCompletionRequest(req *CompletionRequest) error {
	if req == nil {
		return &ValidationError{Field: "request", Message: "request cannot be nil"}
	}
	if req.Model == "" {
		return &ValidationError{Field: "model", Message: "model is required"}
	}
	return nil
}
