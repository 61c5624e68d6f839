// Package anthropic implements the Anthropic provider adapter.
//
// This package provides an implementation of the providers.Provider interface
// for Anthropic's Messages API. It supports:
//
//   - Chat completions (blocking and streaming)
//   - A static catalog of Claude 3.x models
//   - Token usage pass-through
//
// Legacy text completions are not offered by the Messages API; Completion
// and CompletionStream return an error matching providers.ErrUnsupportedOperation
// without contacting the vendor.
//
// # Basic Usage
//
//	provider, err := anthropic.NewProvider(providers.ProviderConfig{
//	    Type:   providers.TypeAnthropic,
//	    APIKey: os.Getenv("ANTHROPIC_API_KEY"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := provider.ChatCompletion(ctx, &providers.ChatCompletionRequest{
//	    Model:    "claude-3-5-sonnet-20241022",
//	    Messages: []providers.Message{{Role: "user", Content: "Hello!"}},
//	})
//
// # Request Transformation
//
//   - System messages are removed from the list and joined with a blank
//     line into the "system" field
//   - max_tokens defaults to 4096 (the API requires it)
//   - Stop becomes stop_sequences (always a list)
//
// # Response Transformation
//
//   - Text content blocks are concatenated
//   - input_tokens/output_tokens map to prompt/completion; total is the sum
//   - end_turn and stop_sequence map to "stop", max_tokens to "length"
//
// # Streaming
//
// Only content_block_delta (text) and message_delta (finish reason) events
// produce chunks; all other event types are ignored.
package anthropic
