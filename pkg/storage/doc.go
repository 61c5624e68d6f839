// Package storage persists chats, messages, provider configurations and
// model preferences.
//
// Store is implemented by SQLiteStore and MemoryStore. SQLiteStore runs on
// either SQLite driver: "sqlite3" (github.com/mattn/go-sqlite3, needs cgo)
// or "sqlite" (modernc.org/sqlite, pure Go). Foreign keys are enforced, so
// deleting a chat removes its messages and deleting a provider removes its
// model preferences and clears references to it.
//
// Lookups of missing rows return ErrNotFound; other failures are wrapped
// in *StorageError.
package storage
