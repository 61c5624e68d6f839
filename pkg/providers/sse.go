package providers

import (
	"bufio"
	"errors"
	"io"
	"iter"
	"strings"
)

const (
	ssePrefix = "data: "
	sseDone   = "[DONE]"
)

// Events decodes a Server-Sent Events body into raw event payloads.
//
// Lines are split on '\n' and may span any number of reads. Only lines
// starting with "data: " are events; the prefix is stripped and the
// "[DONE]" sentinel is dropped. A final line with no newline is discarded.
//
// body is closed when iteration ends, whether the stream was exhausted,
// the caller stopped early, or a read failed. A read error is yielded once
// as the last element.
func Events(body io.ReadCloser) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		defer body.Close()

		r := bufio.NewReader(body)
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				if !errors.Is(err, io.EOF) {
					yield("", err)
				}
				return
			}

			line = strings.TrimSuffix(line[:len(line)-1], "\r")
			payload, ok := strings.CutPrefix(line, ssePrefix)
			if !ok || payload == sseDone {
				continue
			}
			if !yield(payload, nil) {
				return
			}
		}
	}
}

// ChunkDecoder turns one event payload into a chunk. It returns false for
// events that carry nothing for the caller, including malformed ones.
type ChunkDecoder func(payload string) (StreamChunk, bool)

// NewStream adapts an SSE body into a Stream using decode. Read failures
// are reported as *TransportError with no status code.
func NewStream(provider ProviderType, body io.ReadCloser, decode ChunkDecoder) Stream {
	return func(yield func(StreamChunk, error) bool) {
		for payload, err := range Events(body) {
			if err != nil {
				yield(StreamChunk{}, &TransportError{Provider: provider, Message: err.Error(), Cause: err})
				return
			}
			chunk, ok := decode(payload)
			if !ok {
				continue
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}
