package storage

import (
	"context"
	"fmt"
	"log/slog"

	"lite-hq/lite/pkg/config"
)

// SeedResult counts what SeedProviders changed.
type SeedResult struct {
	Created int
	Updated int
}

// SeedProviders upserts configured provider entries, matching stored rows
// by name. An entry marked default becomes the default provider; when no
// provider is default afterwards, the first stored one is promoted.
func SeedProviders(ctx context.Context, store Store, entries []config.ProviderEntry) (SeedResult, error) {
	var res SeedResult
	logger := slog.Default().With("component", "storage.seed")

	existing, err := store.ListProviders(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list providers: %w", err)
	}
	byName := make(map[string]*ProviderRecord, len(existing))
	for _, rec := range existing {
		byName[rec.Name] = rec
	}

	for _, entry := range entries {
		var id int64

		if rec, ok := byName[entry.Name]; ok {
			headers := entry.CustomHeaders
			upd := ProviderUpdate{
				Type:          &entry.Type,
				APIKey:        &entry.APIKey,
				BaseURL:       &entry.BaseURL,
				Organization:  &entry.Organization,
				CustomHeaders: &headers,
			}
			if err := store.UpdateProvider(ctx, rec.ID, upd); err != nil {
				return res, fmt.Errorf("failed to update provider %q: %w", entry.Name, err)
			}
			id = rec.ID
			res.Updated++
		} else {
			rec := &ProviderRecord{
				Name:          entry.Name,
				Type:          entry.Type,
				APIKey:        entry.APIKey,
				BaseURL:       entry.BaseURL,
				Organization:  entry.Organization,
				CustomHeaders: entry.CustomHeaders,
			}
			id, err = store.CreateProvider(ctx, rec, false)
			if err != nil {
				return res, fmt.Errorf("failed to create provider %q: %w", entry.Name, err)
			}
			byName[entry.Name] = rec
			res.Created++
		}

		if entry.Default {
			if err := store.SetDefaultProvider(ctx, id); err != nil {
				return res, fmt.Errorf("failed to set default provider %q: %w", entry.Name, err)
			}
		}

		logger.Debug("provider seeded", "name", entry.Name, "type", entry.Type, "id", id)
	}

	if _, err := store.DefaultProvider(ctx); err == nil {
		return res, nil
	}
	all, err := store.ListProviders(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list providers: %w", err)
	}
	if len(all) > 0 {
		if err := store.SetDefaultProvider(ctx, all[0].ID); err != nil {
			return res, fmt.Errorf("failed to set default provider: %w", err)
		}
	}

	return res, nil
}
