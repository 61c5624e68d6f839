// Package logging provides structured logging with secret redaction.
//
// The package wraps log/slog. Every record passes through a handler that
// attaches request-scoped fields from the context (request_id, chat_id,
// provider, model, and the active trace and span IDs) and masks
// credentials:
//
//   - sk-ant-api03-abc... becomes sk-ant-***
//   - sk-or-v1-abc... becomes sk-or-***
//   - sk-proj-abc... becomes sk-***
//   - "Bearer abc..." becomes "Bearer ***"
//   - values under keys like api_key or authorization keep four characters
//
// Usage:
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json", RedactSecrets: true})
//	logging.SetDefault(logger)
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	logger.InfoContext(ctx, "chat completed", "model", "gpt-4o-mini")
package logging
