package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"lite-hq/lite/pkg/chat"
	"lite-hq/lite/pkg/providers"
)

// streamEvent is one SSE data payload of POST /api/chat.
type streamEvent struct {
	Delta        string                 `json:"delta"`
	FinishReason providers.FinishReason `json:"finishReason"`
}

type streamError struct {
	Error  string `json:"error"`
	Status int    `json:"status,omitempty"`
}

// sendChat serves POST /api/chat. Errors before the first chunk are plain
// JSON responses; once streaming has started a failure is reported as a
// final {"error":...} event and the stream ends without [DONE].
func (s *Server) sendChat(w http.ResponseWriter, r *http.Request) {
	var req chat.SendRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	stream, err := s.chat.Send(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rc := http.NewResponseController(w)
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	send := func(v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	for chunk, err := range stream {
		if err != nil {
			_ = send(streamError{Error: err.Error(), Status: providers.StatusCode(err)})
			return
		}
		if err := send(streamEvent{Delta: chunk.Delta, FinishReason: chunk.FinishReason}); err != nil {
			s.logger.DebugContext(r.Context(), "client went away during stream", "error", err)
			return
		}
	}

	if _, err := fmt.Fprint(w, "data: [DONE]\n\n"); err == nil {
		_ = rc.Flush()
	}
}

// completeChat serves POST /api/chat/complete, the non-streaming variant.
func (s *Server) completeChat(w http.ResponseWriter, r *http.Request) {
	var req chat.SendRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	reply, err := s.chat.Complete(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}
