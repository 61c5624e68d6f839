package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"lite-hq/lite/pkg/config"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid JSON config", Config{Level: "info", Format: "json", RedactSecrets: true}, false},
		{"valid text config", Config{Level: "debug", Format: "text"}, false},
		{"valid console config", Config{Level: "WARN", Format: "console"}, false},
		{"empty values use defaults", Config{}, false},
		{"invalid log level", Config{Level: "invalid"}, true},
		{"invalid format", Config{Format: "xml"}, true},
		{
			name: "invalid custom pattern",
			config: Config{
				RedactSecrets:  true,
				RedactPatterns: []config.RedactPattern{{Name: "bad", Pattern: "("}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Writer = &bytes.Buffer{}
			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logger == nil {
				t.Error("expected logger, got nil")
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "warn", Format: "json", Writer: buf})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")

	lines := decodeLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %s", len(lines), buf.String())
	}
	if lines[0]["msg"] != "warn" || lines[1]["msg"] != "error" {
		t.Errorf("unexpected messages: %v", lines)
	}
}

func TestLogger_SetLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Writer: buf})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	child := logger.With("component", "test")

	child.Debug("hidden")
	if err := logger.SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel() failed: %v", err)
	}
	child.Debug("visible")

	lines := decodeLines(t, buf)
	if len(lines) != 1 || lines[0]["msg"] != "visible" {
		t.Errorf("expected derived logger to follow level change, got %v", lines)
	}
	if logger.Level() != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", logger.Level())
	}

	if err := logger.SetLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLogger_Redaction(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "json", RedactSecrets: true, Writer: buf})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	logger.Info("calling sk-proj-abcdefghijklmnop",
		"api_key", "sk-ant-api03-secretvalue",
		"header", "Bearer abc.def.ghi",
		"prompt_tokens", 12,
		"error", errors.New("bad key sk-or-v1-0123456789abcdef"),
	)

	line := decodeLines(t, buf)[0]
	if line["msg"] != "calling sk-***" {
		t.Errorf("message not redacted: %v", line["msg"])
	}
	if line["api_key"] != "sk-a***" {
		t.Errorf("api_key not redacted: %v", line["api_key"])
	}
	if line["header"] != "Bearer ***" {
		t.Errorf("bearer not redacted: %v", line["header"])
	}
	if line["prompt_tokens"] != float64(12) {
		t.Errorf("token count should not be redacted: %v", line["prompt_tokens"])
	}
	if line["error"] != "bad key sk-or-***" {
		t.Errorf("error not redacted: %v", line["error"])
	}
}

func TestLogger_WithRedactsAttrs(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{RedactSecrets: true, Writer: buf})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	logger.With("authorization", "Bearer 1234567890").Info("hello")

	line := decodeLines(t, buf)[0]
	if line["authorization"] != "Bear***" {
		t.Errorf("expected prefix-only value, got %v", line["authorization"])
	}
}

func TestLogger_NoRedaction(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Writer: buf})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	logger.Info("raw", "api_key", "sk-abcdefghijkl")

	if line := decodeLines(t, buf)[0]; line["api_key"] != "sk-abcdefghijkl" {
		t.Errorf("expected raw value without redaction, got %v", line["api_key"])
	}
}

func TestLogger_ContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Writer: buf})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithChatID(ctx, "chat-9")
	ctx = WithProvider(ctx, "openai")

	logger.InfoContext(ctx, "with context")
	logger.WithContext(ctx).Info("bound")

	for _, line := range decodeLines(t, buf) {
		if line["request_id"] != "req-1" || line["chat_id"] != "chat-9" || line["provider"] != "openai" {
			t.Errorf("missing context fields: %v", line)
		}
		if _, ok := line["model"]; ok {
			t.Errorf("unset field logged: %v", line)
		}
	}
}

func TestSetDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	buf := &bytes.Buffer{}
	logger, err := New(Config{RedactSecrets: true, Writer: buf})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	SetDefault(logger)

	slog.Info("via default", "token", "abcdefghijkl")

	if line := decodeLines(t, buf)[0]; line["token"] != "abcd***" {
		t.Errorf("default logger did not redact: %v", line)
	}
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.LoggingConfig{Level: "debug", Format: "text", RedactSecrets: true})
	if cfg.Level != "debug" || cfg.Format != "text" || !cfg.RedactSecrets {
		t.Errorf("unexpected conversion: %+v", cfg)
	}
}

func TestTextFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Format: "text", Writer: buf})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	logger.Info("plain", "k", "v")
	if !strings.Contains(buf.String(), "msg=plain") || !strings.Contains(buf.String(), "k=v") {
		t.Errorf("unexpected text output %q", buf.String())
	}
}
