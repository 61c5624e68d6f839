package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"lite-hq/lite/pkg/providers"
)

// StreamPrinter writes streamed reply text as it arrives and summarizes
// the stream when it ends.
type StreamPrinter struct {
	mu      sync.Mutex
	out     io.Writer
	status  io.Writer
	started time.Time
	chunks  int
	chars   int
	finish  providers.FinishReason
}

// NewStreamPrinter prints deltas to out and the summary to status. Nil
// writers default to stdout and stderr.
func NewStreamPrinter(out, status io.Writer) *StreamPrinter {
	if out == nil {
		out = os.Stdout
	}
	if status == nil {
		status = os.Stderr
	}
	return &StreamPrinter{out: out, status: status}
}

// Chunk writes one chunk's delta.
func (p *StreamPrinter) Chunk(c providers.StreamChunk) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started.IsZero() {
		p.started = time.Now()
	}
	p.chunks++
	p.chars += len(c.Delta)
	if c.FinishReason != providers.FinishReasonNone {
		p.finish = c.FinishReason
	}
	_, err := io.WriteString(p.out, c.Delta)
	return err
}

// Finish ends the reply line and writes the summary.
func (p *StreamPrinter) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.out)

	var elapsed time.Duration
	if !p.started.IsZero() {
		elapsed = time.Since(p.started)
	}
	finish := string(p.finish)
	if finish == "" {
		finish = "none"
	}
	fmt.Fprintf(p.status, "-- %d chunks, %d chars, finish=%s, %s\n",
		p.chunks, p.chars, finish, elapsed.Round(time.Millisecond))
}

// Error reports a stream failure.
func (p *StreamPrinter) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.status, "\n✗ Error: %v\n", err)
}
