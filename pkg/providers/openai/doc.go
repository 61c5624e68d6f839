// Package openai implements the OpenAI-compatible provider adapter.
//
// The adapter speaks the /models, /chat/completions and /completions
// endpoints. It also backs the "custom" provider type, which points the
// same wire format at any base URL (vLLM, LM Studio, Ollama's OpenAI
// endpoint and the like), and the openrouter package reuses its request
// and streaming code.
//
// # Basic Usage
//
//	provider, err := openai.NewProvider(providers.ProviderConfig{
//	    Type:   providers.TypeOpenAI,
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := provider.ChatCompletion(ctx, &providers.ChatCompletionRequest{
//	    Model:    "gpt-4o-mini",
//	    Messages: []providers.Message{{Role: providers.RoleUser, Content: "Hello!"}},
//	})
//
// # Model Listing
//
// Models returns only ids containing "gpt", enriched from a static table of
// context windows and per-1M-token prices. Unknown ids match the longest
// table key they start with, and fall back to a 4096-token window with no
// pricing.
package openai
