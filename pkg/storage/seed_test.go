package storage

import (
	"context"
	"testing"

	"lite-hq/lite/pkg/config"
	"lite-hq/lite/pkg/providers"
)

func entry(name string, t providers.ProviderType, key string, def bool) config.ProviderEntry {
	e := config.ProviderEntry{Name: name, Default: def}
	e.Type = t
	e.APIKey = key
	return e
}

func TestSeedProviders(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	res, err := SeedProviders(ctx, s, []config.ProviderEntry{
		entry("openai", providers.TypeOpenAI, "sk-1", false),
		entry("anthropic", providers.TypeAnthropic, "sk-ant-1", true),
	})
	if err != nil {
		t.Fatalf("SeedProviders() error = %v", err)
	}
	if res.Created != 2 || res.Updated != 0 {
		t.Errorf("first seed = %+v", res)
	}

	def, err := s.DefaultProvider(ctx)
	if err != nil || def.Name != "anthropic" {
		t.Fatalf("DefaultProvider() = %+v, %v", def, err)
	}

	// Reseeding updates by name instead of duplicating.
	res, err = SeedProviders(ctx, s, []config.ProviderEntry{
		entry("openai", providers.TypeOpenAI, "sk-rotated", false),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Created != 0 || res.Updated != 1 {
		t.Errorf("second seed = %+v", res)
	}

	list, _ := s.ListProviders(ctx)
	if len(list) != 2 {
		t.Fatalf("providers = %d, want 2", len(list))
	}
	for _, rec := range list {
		if rec.Name == "openai" && rec.APIKey != "sk-rotated" {
			t.Errorf("openai key = %q, want sk-rotated", rec.APIKey)
		}
	}
	if def, _ := s.DefaultProvider(ctx); def.Name != "anthropic" {
		t.Errorf("reseed without a default moved the default to %q", def.Name)
	}
}

func TestSeedProviders_PromotesFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := SeedProviders(ctx, s, []config.ProviderEntry{
		entry("zeta", providers.TypeOpenAI, "sk-1", false),
		entry("alpha", providers.TypeOpenRouter, "sk-or-1", false),
	})
	if err != nil {
		t.Fatal(err)
	}

	def, err := s.DefaultProvider(ctx)
	if err != nil || def.Name != "alpha" {
		t.Errorf("DefaultProvider() = %+v, %v, want alpha", def, err)
	}
}

func TestSeedProviders_Empty(t *testing.T) {
	s := NewMemoryStore()
	res, err := SeedProviders(context.Background(), s, nil)
	if err != nil || res != (SeedResult{}) {
		t.Errorf("SeedProviders(nil) = %+v, %v", res, err)
	}
}
