package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"lite-hq/lite/pkg/chat"
	"lite-hq/lite/pkg/config"
	"lite-hq/lite/pkg/providers"
	"lite-hq/lite/pkg/storage"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`

	// Errors lists individual problems, e.g. from provider validation.
	Errors []string `json:"errors,omitempty"`

	// Status is the vendor HTTP status for upstream failures.
	Status int `json:"status,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("failed to encode response", "error", err)
	}
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	var (
		verr  *providers.ValidationError
		cerr  *providers.ConfigurationError
		cfgv  config.ValidationError
		terr  *providers.TransportError
		badRq *badRequestError
	)
	switch {
	case errors.As(err, &badRq), errors.As(err, &verr), errors.As(err, &cerr), errors.As(err, &cfgv):
		return http.StatusBadRequest
	case errors.Is(err, chat.ErrNoProvider):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, providers.ErrUnsupportedOperation):
		return http.StatusNotImplemented
	case errors.Is(err, providers.ErrUnsupportedProviderType):
		return http.StatusBadRequest
	case errors.As(err, &terr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err with the status from statusFor. Internal errors
// are logged and replaced by a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}

	switch status {
	case http.StatusBadGateway:
		body.Status = providers.StatusCode(err)
		s.logger.WarnContext(r.Context(), "provider request failed", "error", err, "vendor_status", body.Status)
	case http.StatusNotFound:
		body.Error = "not found"
	case http.StatusInternalServerError:
		s.logger.ErrorContext(r.Context(), "request failed", "error", err)
		body.Error = "internal server error"
	}

	writeJSON(w, status, body)
}

type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is required")
		}
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

// pathID parses the {name} URL parameter as an int64.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid %s %q", name, raw)
	}
	return id, nil
}

// queryID parses an optional int64 query parameter.
func queryID(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, badRequest("invalid %s %q", name, raw)
	}
	return &id, nil
}

// queryBool parses an optional boolean query parameter.
func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, badRequest("invalid %s %q", name, raw)
	}
	return v, nil
}
