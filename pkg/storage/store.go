package storage

import (
	"context"
	"fmt"
	"time"

	"lite-hq/lite/pkg/config"
)

// Store persists chats, messages, provider configurations and preferences.
// Implementations must be safe for concurrent use.
type Store interface {
	// Chats
	CreateChat(ctx context.Context, title string) (*Chat, error)
	GetChat(ctx context.Context, id string) (*Chat, error)
	ListChats(ctx context.Context) ([]*Chat, error)
	UpdateChatTitle(ctx context.Context, id, title string) error
	DeleteChat(ctx context.Context, id string) error
	DeleteChatsBefore(ctx context.Context, before time.Time) (int64, error)

	// Messages
	SaveMessage(ctx context.Context, msg *Message) (int64, error)
	ListMessages(ctx context.Context, chatID string) ([]*Message, error)
	UpdateMessage(ctx context.Context, id int64, content string) error
	DeleteMessage(ctx context.Context, id int64) error

	// Providers
	CreateProvider(ctx context.Context, rec *ProviderRecord, setDefault bool) (int64, error)
	GetProvider(ctx context.Context, id int64) (*ProviderRecord, error)
	DefaultProvider(ctx context.Context) (*ProviderRecord, error)
	ListProviders(ctx context.Context) ([]*ProviderRecord, error)
	UpdateProvider(ctx context.Context, id int64, upd ProviderUpdate) error
	SetDefaultProvider(ctx context.Context, id int64) error
	DeleteProvider(ctx context.Context, id int64) error

	// Preferences
	TouchModelPreference(ctx context.Context, providerID int64, modelID, modelName string) error
	ListModelPreferences(ctx context.Context, providerID int64) ([]*ModelPreference, error)
	ToggleFavorite(ctx context.Context, providerID int64, modelID string) error
	UserPreferences(ctx context.Context) (*UserPreferences, error)
	SetUserPreferences(ctx context.Context, providerID *int64, modelID *string) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// Open creates the backend selected by cfg.Backend.
func Open(cfg config.StorageConfig, opts ...Option) (Store, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(opts...), nil
	case "sqlite", "":
		return NewSQLiteStore(cfg.SQLite, opts...)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

// Option configures a store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now for created_at, updated_at and last_used.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
