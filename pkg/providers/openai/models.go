package openai

import (
	"strings"

	"lite-hq/lite/pkg/providers"
)

const defaultContextWindow = 4096

type modelList struct {
	Data []struct {
		ID      string `json:"id"`
		Created int64  `json:"created"`
	} `json:"data"`
}

type modelInfo struct {
	name          string
	contextWindow int
	pricing       providers.Pricing
}

// knownModels prices are USD per 1M tokens.
var knownModels = map[string]modelInfo{
	"gpt-4":         {name: "GPT-4", contextWindow: 8192, pricing: providers.Pricing{Prompt: 30, Completion: 60}},
	"gpt-4-turbo":   {name: "GPT-4 Turbo", contextWindow: 128000, pricing: providers.Pricing{Prompt: 10, Completion: 30}},
	"gpt-4o":        {name: "GPT-4o", contextWindow: 128000, pricing: providers.Pricing{Prompt: 5, Completion: 15}},
	"gpt-4o-mini":   {name: "GPT-4o Mini", contextWindow: 128000, pricing: providers.Pricing{Prompt: 0.15, Completion: 0.6}},
	"gpt-3.5-turbo": {name: "GPT-3.5 Turbo", contextWindow: 16385, pricing: providers.Pricing{Prompt: 0.5, Completion: 1.5}},
}

// lookupModel finds the exact entry, else the longest key id starts with.
func lookupModel(id string) (modelInfo, bool) {
	if info, ok := knownModels[id]; ok {
		return info, true
	}

	best := ""
	for key := range knownModels {
		if strings.HasPrefix(id, key) && len(key) > len(best) {
			best = key
		}
	}
	if best == "" {
		return modelInfo{}, false
	}
	return knownModels[best], true
}

func describeModel(providerType providers.ProviderType, id string) providers.Model {
	m := providers.Model{
		ID:                 id,
		Name:               id,
		Provider:           providerType,
		ContextWindow:      defaultContextWindow,
		SupportsChat:       true,
		SupportsCompletion: strings.Contains(id, "gpt-3.5"),
	}

	if info, ok := lookupModel(id); ok {
		pricing := info.pricing
		m.Name = info.name
		m.ContextWindow = info.contextWindow
		m.Pricing = &pricing
	}

	return m
}
