// Package providers defines the uniform contract over LLM vendor APIs.
//
// # Overview
//
// Each vendor (OpenAI-compatible, Anthropic, OpenRouter) speaks its own
// request shape, authentication scheme, streaming format and error payload.
// This package holds what they share:
//
//  1. Provider - the interface every adapter implements
//  2. Shared types - messages, requests, responses, stream chunks, models
//  3. Transport - header merging and non-2xx normalization for one HTTP call
//  4. Events / NewStream - the Server-Sent Events decoder
//  5. Error taxonomy - ConfigurationError, TransportError,
//     UnsupportedOperationError, ValidationError
//
// Adapters live in the openai, anthropic and openrouter subpackages. The
// providerfactory package constructs them and caches instances.
//
// # Streaming
//
// Streams are iter.Seq2 sequences. The HTTP response body is released when
// the range loop ends, including on break:
//
//	stream, err := p.ChatCompletionStream(ctx, req)
//	if err != nil {
//	    return err
//	}
//	for chunk, err := range stream {
//	    if err != nil {
//	        return err
//	    }
//	    if chunk.Delta == "" {
//	        continue
//	    }
//	    fmt.Print(chunk.Delta)
//	}
//
// An event that does not parse as the vendor's JSON shape is skipped; the
// stream continues.
//
// # Error Handling
//
// Every HTTP failure is a *TransportError carrying the provider type, the
// status code (0 for network failures) and the vendor's message:
//
//	var terr *providers.TransportError
//	if errors.As(err, &terr) && terr.StatusCode == http.StatusTooManyRequests {
//	    fmt.Println("rate limited:", terr.Message)
//	}
//
// Capability gaps (legacy completion on Anthropic) match
// ErrUnsupportedOperation with errors.Is. Nothing in this package retries.
package providers
