package storage

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"lite-hq/lite/pkg/config"
	"lite-hq/lite/pkg/providers"
)

// testClock hands out strictly increasing millisecond timestamps.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type backend struct {
	name string
	open func(t *testing.T, clock *testClock) Store
}

func sqliteBackend(driver string) backend {
	return backend{
		name: "sqlite/" + driver,
		open: func(t *testing.T, clock *testClock) Store {
			t.Helper()
			cfg := config.SQLiteConfig{
				Path:         filepath.Join(t.TempDir(), "lite.db"),
				Driver:       driver,
				MaxOpenConns: 4,
				MaxIdleConns: 2,
				WALMode:      true,
				BusyTimeout:  5 * time.Second,
			}
			s, err := NewSQLiteStore(cfg, WithClock(clock.Now))
			if err != nil {
				t.Fatalf("NewSQLiteStore(%s) error = %v", driver, err)
			}
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

var backends = []backend{
	{
		name: "memory",
		open: func(t *testing.T, clock *testClock) Store {
			return NewMemoryStore(WithClock(clock.Now))
		},
	},
	sqliteBackend("sqlite3"),
	sqliteBackend("sqlite"),
}

// forEachBackend runs fn against every backend so both implementations
// are held to the same behavior.
func forEachBackend(t *testing.T, fn func(t *testing.T, s Store, clock *testClock)) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			clock := newTestClock()
			fn(t, b.open(t, clock), clock)
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestStore_Chats(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, clock *testClock) {
		ctx := context.Background()

		first, err := s.CreateChat(ctx, "")
		if err != nil {
			t.Fatalf("CreateChat() error = %v", err)
		}
		if first.Title != DefaultChatTitle {
			t.Errorf("Title = %q, want %q", first.Title, DefaultChatTitle)
		}
		if first.ID == "" {
			t.Error("CreateChat() returned an empty id")
		}

		second, err := s.CreateChat(ctx, "Go questions")
		if err != nil {
			t.Fatal(err)
		}

		chats, err := s.ListChats(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(chats) != 2 || chats[0].ID != second.ID || chats[1].ID != first.ID {
			t.Errorf("ListChats() order = %v, want newest first", chatIDs(chats))
		}

		if err := s.UpdateChatTitle(ctx, first.ID, "Renamed"); err != nil {
			t.Fatal(err)
		}
		got, err := s.GetChat(ctx, first.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Title != "Renamed" || !got.CreatedAt.Equal(first.CreatedAt) {
			t.Errorf("GetChat() = %+v", got)
		}

		if err := s.DeleteChat(ctx, first.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := s.GetChat(ctx, first.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetChat() after delete error = %v, want ErrNotFound", err)
		}
		if err := s.DeleteChat(ctx, first.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("DeleteChat() twice error = %v, want ErrNotFound", err)
		}
		if err := s.UpdateChatTitle(ctx, "missing", "x"); !errors.Is(err, ErrNotFound) {
			t.Errorf("UpdateChatTitle(missing) error = %v, want ErrNotFound", err)
		}
	})
}

func chatIDs(chats []*Chat) []string {
	ids := make([]string, len(chats))
	for i, c := range chats {
		ids[i] = c.ID
	}
	return ids
}

func TestStore_Messages(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, clock *testClock) {
		ctx := context.Background()

		chat, err := s.CreateChat(ctx, "history")
		if err != nil {
			t.Fatal(err)
		}
		providerID, err := s.CreateProvider(ctx, &ProviderRecord{Name: "openai", Type: providers.TypeOpenAI, APIKey: "sk-test"}, true)
		if err != nil {
			t.Fatal(err)
		}

		user := &Message{ChatID: chat.ID, Role: providers.RoleUser, Content: "hello"}
		userID, err := s.SaveMessage(ctx, user)
		if err != nil {
			t.Fatalf("SaveMessage() error = %v", err)
		}
		if user.ID != userID || user.CreatedAt.IsZero() {
			t.Errorf("SaveMessage() did not fill id and created_at: %+v", user)
		}

		_, err = s.SaveMessage(ctx, &Message{
			ChatID:           chat.ID,
			Role:             providers.RoleAssistant,
			Content:          "hi there",
			Model:            "gpt-4o-mini",
			ProviderID:       &providerID,
			TokensPrompt:     ptr(5),
			TokensCompletion: ptr(2),
		})
		if err != nil {
			t.Fatal(err)
		}

		msgs, err := s.ListMessages(ctx, chat.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(msgs) != 2 {
			t.Fatalf("ListMessages() = %d messages, want 2", len(msgs))
		}
		if msgs[0].Content != "hello" || msgs[0].Model != "" || msgs[0].ProviderID != nil || msgs[0].TokensPrompt != nil {
			t.Errorf("user message = %+v", msgs[0])
		}
		a := msgs[1]
		if a.Role != providers.RoleAssistant || a.Model != "gpt-4o-mini" ||
			a.ProviderID == nil || *a.ProviderID != providerID ||
			a.TokensPrompt == nil || *a.TokensPrompt != 5 ||
			a.TokensCompletion == nil || *a.TokensCompletion != 2 {
			t.Errorf("assistant message = %+v", a)
		}

		if err := s.UpdateMessage(ctx, userID, "hello, edited"); err != nil {
			t.Fatal(err)
		}
		if err := s.DeleteMessage(ctx, a.ID); err != nil {
			t.Fatal(err)
		}
		msgs, _ = s.ListMessages(ctx, chat.ID)
		if len(msgs) != 1 || msgs[0].Content != "hello, edited" {
			t.Errorf("after edit/delete = %+v", msgs)
		}

		if err := s.UpdateMessage(ctx, 9999, "x"); !errors.Is(err, ErrNotFound) {
			t.Errorf("UpdateMessage(missing) error = %v", err)
		}
		if err := s.DeleteMessage(ctx, 9999); !errors.Is(err, ErrNotFound) {
			t.Errorf("DeleteMessage(missing) error = %v", err)
		}
		if _, err := s.SaveMessage(ctx, &Message{ChatID: "missing", Role: providers.RoleUser, Content: "x"}); !errors.Is(err, ErrNotFound) {
			t.Errorf("SaveMessage(missing chat) error = %v, want ErrNotFound", err)
		}

		empty, err := s.ListMessages(ctx, "missing")
		if err != nil || len(empty) != 0 {
			t.Errorf("ListMessages(missing) = %v, %v", empty, err)
		}
	})
}

func TestStore_DeleteChatCascades(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, clock *testClock) {
		ctx := context.Background()

		chat, _ := s.CreateChat(ctx, "doomed")
		msgID, err := s.SaveMessage(ctx, &Message{ChatID: chat.ID, Role: providers.RoleUser, Content: "x"})
		if err != nil {
			t.Fatal(err)
		}

		if err := s.DeleteChat(ctx, chat.ID); err != nil {
			t.Fatal(err)
		}
		if err := s.UpdateMessage(ctx, msgID, "y"); !errors.Is(err, ErrNotFound) {
			t.Errorf("message survived chat deletion: %v", err)
		}
	})
}

func TestStore_DeleteChatsBefore(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, clock *testClock) {
		ctx := context.Background()

		old1, _ := s.CreateChat(ctx, "old 1")
		old2, _ := s.CreateChat(ctx, "old 2")
		s.SaveMessage(ctx, &Message{ChatID: old1.ID, Role: providers.RoleUser, Content: "x"})

		clock.Advance(48 * time.Hour)
		cutoff := clock.Now()
		clock.Advance(time.Hour)

		recent, _ := s.CreateChat(ctx, "recent")

		n, err := s.DeleteChatsBefore(ctx, cutoff)
		if err != nil {
			t.Fatal(err)
		}
		if n != 2 {
			t.Errorf("DeleteChatsBefore() = %d, want 2", n)
		}

		for _, id := range []string{old1.ID, old2.ID} {
			if _, err := s.GetChat(ctx, id); !errors.Is(err, ErrNotFound) {
				t.Errorf("chat %s survived: %v", id, err)
			}
		}
		if _, err := s.GetChat(ctx, recent.ID); err != nil {
			t.Errorf("recent chat deleted: %v", err)
		}
		if msgs, _ := s.ListMessages(ctx, old1.ID); len(msgs) != 0 {
			t.Errorf("messages of a pruned chat survived: %d", len(msgs))
		}
	})
}

func TestStore_Providers(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, clock *testClock) {
		ctx := context.Background()

		if _, err := s.DefaultProvider(ctx); !errors.Is(err, ErrNotFound) {
			t.Errorf("DefaultProvider() on empty store error = %v", err)
		}

		zeta := &ProviderRecord{Name: "zeta", Type: providers.TypeAnthropic, APIKey: "sk-ant-1"}
		zetaID, err := s.CreateProvider(ctx, zeta, true)
		if err != nil {
			t.Fatalf("CreateProvider() error = %v", err)
		}
		if zeta.ID != zetaID || !zeta.IsDefault {
			t.Errorf("CreateProvider() did not fill the record: %+v", zeta)
		}

		alpha := &ProviderRecord{
			Name:          "alpha",
			Type:          providers.TypeCustom,
			APIKey:        "sk-local",
			BaseURL:       "http://localhost:11434/v1",
			Organization:  "org-1",
			CustomHeaders: map[string]string{"X-Tenant": "acme"},
		}
		alphaID, err := s.CreateProvider(ctx, alpha, false)
		if err != nil {
			t.Fatal(err)
		}
		beta, _ := s.CreateProvider(ctx, &ProviderRecord{Name: "beta", Type: providers.TypeOpenAI, APIKey: "sk-2"}, false)

		list, err := s.ListProviders(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 3 || list[0].ID != zetaID || list[1].ID != alphaID || list[2].ID != beta {
			t.Errorf("ListProviders() order = %v, want default first then by name", providerNames(list))
		}

		got, err := s.GetProvider(ctx, alphaID)
		if err != nil {
			t.Fatal(err)
		}
		if got.BaseURL != alpha.BaseURL || got.Organization != "org-1" || got.CustomHeaders["X-Tenant"] != "acme" || got.IsDefault {
			t.Errorf("GetProvider() = %+v", got)
		}

		if err := s.SetDefaultProvider(ctx, alphaID); err != nil {
			t.Fatal(err)
		}
		def, err := s.DefaultProvider(ctx)
		if err != nil || def.ID != alphaID {
			t.Fatalf("DefaultProvider() = %+v, %v", def, err)
		}
		if z, _ := s.GetProvider(ctx, zetaID); z.IsDefault {
			t.Error("old default kept its flag")
		}

		if err := s.SetDefaultProvider(ctx, 9999); !errors.Is(err, ErrNotFound) {
			t.Errorf("SetDefaultProvider(missing) error = %v", err)
		}
		if def, _ := s.DefaultProvider(ctx); def == nil || def.ID != alphaID {
			t.Error("failed SetDefaultProvider cleared the default")
		}

		if err := s.DeleteProvider(ctx, beta); err != nil {
			t.Fatal(err)
		}
		if _, err := s.GetProvider(ctx, beta); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetProvider() after delete error = %v", err)
		}
		if err := s.DeleteProvider(ctx, beta); !errors.Is(err, ErrNotFound) {
			t.Errorf("DeleteProvider() twice error = %v", err)
		}
	})
}

func providerNames(recs []*ProviderRecord) []string {
	names := make([]string, len(recs))
	for i, r := range recs {
		names[i] = r.Name
	}
	return names
}

func TestStore_UpdateProvider(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, clock *testClock) {
		ctx := context.Background()

		rec := &ProviderRecord{
			Name:          "local",
			Type:          providers.TypeCustom,
			APIKey:        "sk-old",
			BaseURL:       "http://localhost:8000/v1",
			CustomHeaders: map[string]string{"X-A": "1"},
		}
		id, err := s.CreateProvider(ctx, rec, false)
		if err != nil {
			t.Fatal(err)
		}

		clock.Advance(time.Minute)
		err = s.UpdateProvider(ctx, id, ProviderUpdate{
			APIKey:        ptr("sk-new"),
			BaseURL:       ptr(""),
			Type:          ptr(providers.TypeOpenAI),
			CustomHeaders: ptr(map[string]string{}),
		})
		if err != nil {
			t.Fatalf("UpdateProvider() error = %v", err)
		}

		got, _ := s.GetProvider(ctx, id)
		if got.Name != "local" {
			t.Errorf("Name changed to %q", got.Name)
		}
		if got.APIKey != "sk-new" || got.BaseURL != "" || got.Type != providers.TypeOpenAI || got.CustomHeaders != nil {
			t.Errorf("GetProvider() after update = %+v", got)
		}
		if !got.UpdatedAt.After(got.CreatedAt) {
			t.Errorf("UpdatedAt %v not after CreatedAt %v", got.UpdatedAt, got.CreatedAt)
		}

		if err := s.UpdateProvider(ctx, id, ProviderUpdate{}); err != nil {
			t.Errorf("empty UpdateProvider() error = %v", err)
		}
		if err := s.UpdateProvider(ctx, 9999, ProviderUpdate{Name: ptr("x")}); !errors.Is(err, ErrNotFound) {
			t.Errorf("UpdateProvider(missing) error = %v", err)
		}
		if err := s.UpdateProvider(ctx, 9999, ProviderUpdate{}); !errors.Is(err, ErrNotFound) {
			t.Errorf("empty UpdateProvider(missing) error = %v", err)
		}
	})
}

func TestStore_ModelPreferences(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, clock *testClock) {
		ctx := context.Background()

		pid, _ := s.CreateProvider(ctx, &ProviderRecord{Name: "or", Type: providers.TypeOpenRouter, APIKey: "sk-or-1"}, true)

		if err := s.TouchModelPreference(ctx, pid, "a", "Model A"); err != nil {
			t.Fatal(err)
		}
		if err := s.TouchModelPreference(ctx, pid, "b", ""); err != nil {
			t.Fatal(err)
		}
		if err := s.TouchModelPreference(ctx, pid, "c", "Model C"); err != nil {
			t.Fatal(err)
		}
		// Touching again moves a to the most recent slot.
		if err := s.TouchModelPreference(ctx, pid, "a", "Model A v2"); err != nil {
			t.Fatal(err)
		}

		prefs, err := s.ListModelPreferences(ctx, pid)
		if err != nil {
			t.Fatal(err)
		}
		if got := prefModelIDs(prefs); !slices.Equal(got, []string{"a", "c", "b"}) {
			t.Errorf("order = %v, want most recent first", got)
		}
		if prefs[0].ModelName != "Model A v2" || prefs[2].ModelName != "b" || prefs[0].LastUsed == nil {
			t.Errorf("prefs = %+v %+v", prefs[0], prefs[2])
		}

		if err := s.ToggleFavorite(ctx, pid, "b"); err != nil {
			t.Fatal(err)
		}
		if err := s.ToggleFavorite(ctx, pid, "never-used"); err != nil {
			t.Fatal(err)
		}
		prefs, _ = s.ListModelPreferences(ctx, pid)
		if got := prefModelIDs(prefs); !slices.Equal(got, []string{"b", "never-used", "a", "c"}) {
			t.Errorf("order with favorites = %v", got)
		}
		if !prefs[1].IsFavorite || prefs[1].LastUsed != nil || prefs[1].ModelName != "never-used" {
			t.Errorf("favorite created by toggle = %+v", prefs[1])
		}

		if err := s.ToggleFavorite(ctx, pid, "b"); err != nil {
			t.Fatal(err)
		}
		prefs, _ = s.ListModelPreferences(ctx, pid)
		if prefs[0].ModelID != "never-used" {
			t.Errorf("untoggled favorite still first: %v", prefModelIDs(prefs))
		}

		if err := s.TouchModelPreference(ctx, 9999, "a", "A"); !errors.Is(err, ErrNotFound) {
			t.Errorf("TouchModelPreference(missing provider) error = %v", err)
		}
		if err := s.ToggleFavorite(ctx, 9999, "a"); !errors.Is(err, ErrNotFound) {
			t.Errorf("ToggleFavorite(missing provider) error = %v", err)
		}

		if err := s.DeleteProvider(ctx, pid); err != nil {
			t.Fatal(err)
		}
		if prefs, _ := s.ListModelPreferences(ctx, pid); len(prefs) != 0 {
			t.Errorf("preferences survived provider deletion: %d", len(prefs))
		}
	})
}

func prefModelIDs(prefs []*ModelPreference) []string {
	ids := make([]string, len(prefs))
	for i, p := range prefs {
		ids[i] = p.ModelID
	}
	return ids
}

func TestStore_UserPreferences(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, clock *testClock) {
		ctx := context.Background()

		if _, err := s.UserPreferences(ctx); !errors.Is(err, ErrNotFound) {
			t.Errorf("UserPreferences() before set error = %v", err)
		}

		pid, _ := s.CreateProvider(ctx, &ProviderRecord{Name: "openai", Type: providers.TypeOpenAI, APIKey: "sk-1"}, true)

		if err := s.SetUserPreferences(ctx, &pid, ptr("gpt-4o")); err != nil {
			t.Fatal(err)
		}
		prefs, err := s.UserPreferences(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if prefs.SelectedProviderID == nil || *prefs.SelectedProviderID != pid ||
			prefs.SelectedModelID == nil || *prefs.SelectedModelID != "gpt-4o" {
			t.Errorf("UserPreferences() = %+v", prefs)
		}

		if err := s.SetUserPreferences(ctx, nil, nil); err != nil {
			t.Fatal(err)
		}
		prefs, _ = s.UserPreferences(ctx)
		if prefs.SelectedProviderID != nil || prefs.SelectedModelID != nil {
			t.Errorf("cleared preferences = %+v", prefs)
		}

		if err := s.SetUserPreferences(ctx, ptr(int64(9999)), nil); !errors.Is(err, ErrNotFound) {
			t.Errorf("SetUserPreferences(missing provider) error = %v", err)
		}

		s.SetUserPreferences(ctx, &pid, ptr("gpt-4o"))
		if err := s.DeleteProvider(ctx, pid); err != nil {
			t.Fatal(err)
		}
		prefs, _ = s.UserPreferences(ctx)
		if prefs.SelectedProviderID != nil {
			t.Errorf("selection kept a deleted provider: %d", *prefs.SelectedProviderID)
		}
		if prefs.SelectedModelID == nil || *prefs.SelectedModelID != "gpt-4o" {
			t.Errorf("model selection lost with provider: %+v", prefs)
		}
	})
}

func TestStore_DeleteProviderNullsMessages(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, clock *testClock) {
		ctx := context.Background()

		pid, _ := s.CreateProvider(ctx, &ProviderRecord{Name: "openai", Type: providers.TypeOpenAI, APIKey: "sk-1"}, true)
		chat, _ := s.CreateChat(ctx, "")
		s.SaveMessage(ctx, &Message{ChatID: chat.ID, Role: providers.RoleAssistant, Content: "x", ProviderID: &pid})

		if err := s.DeleteProvider(ctx, pid); err != nil {
			t.Fatal(err)
		}
		msgs, _ := s.ListMessages(ctx, chat.ID)
		if len(msgs) != 1 || msgs[0].ProviderID != nil {
			t.Errorf("message after provider deletion = %+v", msgs)
		}
	})
}

func TestStore_Ping(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, clock *testClock) {
		if err := s.Ping(context.Background()); err != nil {
			t.Errorf("Ping() error = %v", err)
		}
	})
}

func TestProviderRecord_Config(t *testing.T) {
	rec := &ProviderRecord{
		ID:            3,
		Name:          "local",
		Type:          providers.TypeCustom,
		APIKey:        "sk-local",
		BaseURL:       "http://localhost:1234/v1",
		Organization:  "org",
		CustomHeaders: map[string]string{"X-A": "1"},
	}

	cfg := rec.Config()
	if cfg.Type != providers.TypeCustom || cfg.APIKey != "sk-local" || cfg.BaseURL != rec.BaseURL || cfg.Organization != "org" {
		t.Errorf("Config() = %+v", cfg)
	}

	cfg.CustomHeaders["X-A"] = "changed"
	if rec.CustomHeaders["X-A"] != "1" {
		t.Error("Config() shares the header map with the record")
	}
}

func TestOpen(t *testing.T) {
	mem, err := Open(config.StorageConfig{Backend: "memory"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := mem.(*MemoryStore); !ok {
		t.Errorf("Open(memory) = %T", mem)
	}

	cfg := config.Default().Storage
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "nested", "lite.db")
	cfg.SQLite.Driver = "sqlite"
	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open(sqlite) error = %v", err)
	}
	defer db.Close()
	if _, ok := db.(*SQLiteStore); !ok {
		t.Errorf("Open(sqlite) = %T", db)
	}

	if _, err := Open(config.StorageConfig{Backend: "postgres"}); err == nil {
		t.Error("Open(postgres) should fail")
	}
}

func TestNewSQLiteStore_Errors(t *testing.T) {
	if _, err := NewSQLiteStore(config.SQLiteConfig{}); err == nil {
		t.Error("empty path should fail")
	}

	_, err := NewSQLiteStore(config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "x.db"), Driver: "pgx"})
	var se *StorageError
	if !errors.As(err, &se) || se.Backend != "sqlite" {
		t.Errorf("unknown driver error = %v, want *StorageError", err)
	}
}

func TestNewSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lite.db")
	cfg := config.SQLiteConfig{Path: path, Driver: "sqlite", MaxOpenConns: 1, BusyTimeout: time.Second}

	s, err := NewSQLiteStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	chat, _ := s.CreateChat(context.Background(), "persisted")
	s.Close()

	s, err = NewSQLiteStore(cfg)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	got, err := s.GetChat(context.Background(), chat.ID)
	if err != nil || got.Title != "persisted" {
		t.Errorf("GetChat() after reopen = %+v, %v", got, err)
	}
}
