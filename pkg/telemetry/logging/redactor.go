package logging

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"lite-hq/lite/pkg/config"
)

// Redactor masks provider credentials in log output.
type Redactor struct {
	// patterns run in order; vendor-specific key formats come before the
	// generic sk- form so their prefixes survive.
	patterns []redactPattern
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternAnthropicKey  = "anthropic_key"
	PatternOpenRouterKey = "openrouter_key"
	PatternOpenAIKey     = "openai_key"
	PatternBearerToken   = "bearer_token"
	PatternKeyParam      = "key_param"
)

var defaultPatterns = []struct {
	name        string
	regex       string
	replacement string
}{
	{PatternAnthropicKey, `sk-ant-[A-Za-z0-9_\-]{8,}`, "sk-ant-***"},
	{PatternOpenRouterKey, `sk-or-[A-Za-z0-9_\-]{8,}`, "sk-or-***"},
	{PatternOpenAIKey, `sk-[A-Za-z0-9_\-]{8,}`, "sk-***"},
	{PatternBearerToken, `Bearer\s+[A-Za-z0-9\-._~+/]+=*`, "Bearer ***"},
	{PatternKeyParam, `(?i)((?:x-)?api[-_]?key["']?\s*[:=]\s*["']?)[A-Za-z0-9_\-.]+`, "${1}***"},
}

// NewRedactor creates a Redactor with the built-in patterns followed by
// custom ones.
func NewRedactor(custom []config.RedactPattern) (*Redactor, error) {
	r := &Redactor{}

	for _, p := range defaultPatterns {
		r.patterns = append(r.patterns, redactPattern{
			name:        p.name,
			regex:       regexp.MustCompile(p.regex),
			replacement: p.replacement,
		})
	}

	for _, p := range custom {
		regex, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid redact pattern %q: %w", p.Name, err)
		}
		replacement := p.Replacement
		if replacement == "" {
			replacement = "***"
		}
		r.patterns = append(r.patterns, redactPattern{
			name:        p.Name,
			regex:       regex,
			replacement: replacement,
		})
	}

	return r, nil
}

// RedactString masks every pattern match in value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}

	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// RedactAttr masks an attribute. Values under sensitive keys are replaced
// outright; strings and errors elsewhere are pattern-matched. Groups are
// walked recursively.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			out[i] = r.RedactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}

	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, redactValue(a.Value))
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, r.RedactString(a.Value.String()))
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
	}
	return a
}

// RedactArgs redacts key/value pairs in the style accepted by slog.
func (r *Redactor) RedactArgs(args ...any) []any {
	out := make([]any, len(args))
	copy(out, args)

	for i := 0; i < len(out); i++ {
		switch v := out[i].(type) {
		case slog.Attr:
			out[i] = r.RedactAttr(v)
		case string:
			if i+1 < len(out) {
				out[i+1] = r.RedactAttr(slog.Any(v, out[i+1])).Value
				i++
			}
		}
	}
	return out
}

// isSensitiveKey reports whether an attribute key names a credential.
// Token counts such as prompt_tokens are not credentials.
func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)

	for _, s := range []string{"api_key", "apikey", "api-key", "secret", "password", "authorization"} {
		if strings.Contains(k, s) {
			return true
		}
	}
	return k == "token" || strings.HasSuffix(k, "_token") || strings.HasSuffix(k, "-token")
}

// redactValue replaces a sensitive value, keeping a short prefix of
// strings long enough to identify which key was used.
func redactValue(v slog.Value) string {
	if v.Kind() != slog.KindString {
		return "***"
	}
	return RedactAPIKey(v.String())
}

// RedactAPIKey keeps the first four characters of apiKey.
func RedactAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 8 {
		return "***"
	}
	return apiKey[:4] + "***"
}
