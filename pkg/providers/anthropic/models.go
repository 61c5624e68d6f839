package anthropic

import "lite-hq/lite/pkg/providers"

const contextWindow = 200000

var models = []struct {
	id, name           string
	prompt, completion float64
}{
	{"claude-3-5-sonnet-20241022", "Claude 3.5 Sonnet", 3, 15},
	{"claude-3-5-haiku-20241022", "Claude 3.5 Haiku", 1, 5},
	{"claude-3-opus-20240229", "Claude 3 Opus", 15, 75},
	{"claude-3-sonnet-20240229", "Claude 3 Sonnet", 3, 15},
	{"claude-3-haiku-20240307", "Claude 3 Haiku", 0.25, 1.25},
}

// catalog returns a fresh copy so callers may mutate the result.
func catalog() []providers.Model {
	out := make([]providers.Model, 0, len(models))
	for _, m := range models {
		out = append(out, providers.Model{
			ID:            m.id,
			Name:          m.name,
			Provider:      providers.TypeAnthropic,
			ContextWindow: contextWindow,
			SupportsChat:  true,
			Pricing:       &providers.Pricing{Prompt: m.prompt, Completion: m.completion},
		})
	}
	return out
}
