package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"lite-hq/lite/pkg/config"
	"lite-hq/lite/pkg/providers"
)

const backendSQLite = "sqlite"

// SQLiteStore implements Store on SQLite through database/sql. The driver
// is either mattn/go-sqlite3 ("sqlite3", cgo) or modernc.org/sqlite
// ("sqlite", pure Go).
type SQLiteStore struct {
	db     *sql.DB
	config config.SQLiteConfig
	now    func() time.Time
	logger *slog.Logger
}

// NewSQLiteStore opens the database at cfg.Path, creating the file, its
// directory and the schema as needed.
func NewSQLiteStore(cfg config.SQLiteConfig, opts ...Option) (*SQLiteStore, error) {
	o := buildOptions(opts)
	logger := slog.Default().With("component", "storage.sqlite")

	if cfg.Path == "" {
		return nil, NewStorageError(backendSQLite, "open", errors.New("database path is empty"))
	}
	if cfg.Driver == "" {
		cfg.Driver = config.DefaultSQLiteDriver
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, NewStorageError(backendSQLite, "create_dir", err)
		}
	}

	dsn, err := sqliteDSN(cfg)
	if err != nil {
		return nil, NewStorageError(backendSQLite, "open", err)
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, NewStorageError(backendSQLite, "open", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	s := &SQLiteStore{
		db:     db,
		config: cfg,
		now:    o.now,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", cfg.Path,
		"driver", cfg.Driver,
		"wal_mode", cfg.WALMode,
		"max_open_conns", cfg.MaxOpenConns,
	)

	return s, nil
}

// sqliteDSN builds a DSN whose pragmas apply to every pooled connection.
// The two drivers spell connection pragmas differently.
func sqliteDSN(cfg config.SQLiteConfig) (string, error) {
	busy := cfg.BusyTimeout.Milliseconds()
	var params []string

	switch cfg.Driver {
	case "sqlite3":
		params = append(params, "_foreign_keys=on", fmt.Sprintf("_busy_timeout=%d", busy))
		if cfg.WALMode {
			params = append(params, "_journal_mode=WAL")
		}
	case "sqlite":
		params = append(params, "_pragma=foreign_keys(1)", fmt.Sprintf("_pragma=busy_timeout(%d)", busy))
		if cfg.WALMode {
			params = append(params, "_pragma=journal_mode(WAL)")
		}
	default:
		return "", fmt.Errorf("unsupported driver %q", cfg.Driver)
	}

	return "file:" + cfg.Path + "?" + strings.Join(params, "&"), nil
}

// initialize creates the schema and verifies its version.
func (s *SQLiteStore) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return NewStorageError(backendSQLite, "create_schema", err)
	}
	s.logger.Debug("database schema created")

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion, toMillis(s.now())); err != nil {
		return NewStorageError(backendSQLite, "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return NewStorageError(backendSQLite, "get_schema_version", err)
	}
	if version != SchemaVersion {
		return NewStorageError(backendSQLite, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return NewStorageError(backendSQLite, "ping", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return NewStorageError(backendSQLite, "close", err)
	}
	s.logger.Info("SQLite storage closed")
	return nil
}

// CreateChat inserts a chat with a fresh UUID.
func (s *SQLiteStore) CreateChat(ctx context.Context, title string) (*Chat, error) {
	if title == "" {
		title = DefaultChatTitle
	}
	chat := &Chat{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: s.stamp(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chats (id, title, created_at) VALUES (?, ?, ?)`,
		chat.ID, chat.Title, toMillis(chat.CreatedAt))
	if err != nil {
		return nil, NewStorageError(backendSQLite, "create_chat", err)
	}
	return chat, nil
}

// GetChat returns the chat with id.
func (s *SQLiteStore) GetChat(ctx context.Context, id string) (*Chat, error) {
	var (
		chat    Chat
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at FROM chats WHERE id = ?`, id).
		Scan(&chat.ID, &chat.Title, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, NewStorageError(backendSQLite, "get_chat", err)
	}
	chat.CreatedAt = fromMillis(created)
	return &chat, nil
}

// ListChats returns every chat, newest first.
func (s *SQLiteStore) ListChats(ctx context.Context) ([]*Chat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at FROM chats ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, NewStorageError(backendSQLite, "list_chats", err)
	}
	defer rows.Close()

	chats := []*Chat{}
	for rows.Next() {
		var (
			chat    Chat
			created int64
		)
		if err := rows.Scan(&chat.ID, &chat.Title, &created); err != nil {
			return nil, NewStorageError(backendSQLite, "scan_chat", err)
		}
		chat.CreatedAt = fromMillis(created)
		chats = append(chats, &chat)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError(backendSQLite, "list_chats", err)
	}
	return chats, nil
}

// UpdateChatTitle renames a chat.
func (s *SQLiteStore) UpdateChatTitle(ctx context.Context, id, title string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE chats SET title = ? WHERE id = ?`, title, id)
	return s.affected(res, err, "update_chat")
}

// DeleteChat deletes a chat and, by cascade, its messages.
func (s *SQLiteStore) DeleteChat(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, id)
	return s.affected(res, err, "delete_chat")
}

// DeleteChatsBefore deletes chats created before t and returns how many.
func (s *SQLiteStore) DeleteChatsBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE created_at < ?`, toMillis(t))
	if err != nil {
		return 0, NewStorageError(backendSQLite, "delete_chats_before", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, NewStorageError(backendSQLite, "delete_chats_before", err)
	}
	return n, nil
}

// SaveMessage appends a message to its chat and returns the new id.
// ErrNotFound is returned when the chat does not exist.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *Message) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, NewStorageError(backendSQLite, "save_message", err)
	}
	defer tx.Rollback()

	if err := exists(ctx, tx, `SELECT 1 FROM chats WHERE id = ?`, msg.ChatID); err != nil {
		return 0, s.wrap(err, "save_message")
	}

	created := s.stamp()
	var id int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO messages (chat_id, role, content, model, provider_id, tokens_prompt, tokens_completion, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`,
		msg.ChatID, msg.Role, msg.Content,
		nullString(msg.Model), nullInt64(msg.ProviderID),
		nullInt(msg.TokensPrompt), nullInt(msg.TokensCompletion),
		toMillis(created),
	).Scan(&id)
	if err != nil {
		return 0, NewStorageError(backendSQLite, "save_message", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, NewStorageError(backendSQLite, "save_message", err)
	}

	msg.ID = id
	msg.CreatedAt = created
	return id, nil
}

// ListMessages returns a chat's messages, oldest first.
func (s *SQLiteStore) ListMessages(ctx context.Context, chatID string) ([]*Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chat_id, role, content, model, provider_id, tokens_prompt, tokens_completion, created_at
		 FROM messages WHERE chat_id = ? ORDER BY id ASC`, chatID)
	if err != nil {
		return nil, NewStorageError(backendSQLite, "list_messages", err)
	}
	defer rows.Close()

	msgs := []*Message{}
	for rows.Next() {
		var (
			msg        Message
			model      sql.NullString
			providerID sql.NullInt64
			prompt     sql.NullInt64
			completion sql.NullInt64
			created    int64
		)
		err := rows.Scan(&msg.ID, &msg.ChatID, &msg.Role, &msg.Content,
			&model, &providerID, &prompt, &completion, &created)
		if err != nil {
			return nil, NewStorageError(backendSQLite, "scan_message", err)
		}
		msg.Model = model.String
		msg.ProviderID = int64Ptr(providerID)
		msg.TokensPrompt = intPtr(prompt)
		msg.TokensCompletion = intPtr(completion)
		msg.CreatedAt = fromMillis(created)
		msgs = append(msgs, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError(backendSQLite, "list_messages", err)
	}
	return msgs, nil
}

// UpdateMessage replaces a message's content.
func (s *SQLiteStore) UpdateMessage(ctx context.Context, id int64, content string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE messages SET content = ? WHERE id = ?`, content, id)
	return s.affected(res, err, "update_message")
}

// DeleteMessage deletes one message.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	return s.affected(res, err, "delete_message")
}

// CreateProvider inserts a provider. When setDefault is true every other
// provider loses its default flag in the same transaction.
func (s *SQLiteStore) CreateProvider(ctx context.Context, rec *ProviderRecord, setDefault bool) (int64, error) {
	headers, err := encodeHeaders(rec.CustomHeaders)
	if err != nil {
		return 0, NewStorageError(backendSQLite, "create_provider", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, NewStorageError(backendSQLite, "create_provider", err)
	}
	defer tx.Rollback()

	if setDefault {
		if _, err := tx.ExecContext(ctx, `UPDATE provider_configs SET is_default = 0 WHERE is_default = 1`); err != nil {
			return 0, NewStorageError(backendSQLite, "create_provider", err)
		}
	}

	now := s.stamp()
	var id int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO provider_configs (name, type, api_key, base_url, organization, custom_headers, is_default, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`,
		rec.Name, string(rec.Type), rec.APIKey,
		nullString(rec.BaseURL), nullString(rec.Organization), headers,
		boolInt(setDefault), toMillis(now), toMillis(now),
	).Scan(&id)
	if err != nil {
		return 0, NewStorageError(backendSQLite, "create_provider", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, NewStorageError(backendSQLite, "create_provider", err)
	}

	rec.ID = id
	rec.IsDefault = setDefault
	rec.CreatedAt = now
	rec.UpdatedAt = now
	return id, nil
}

const providerColumns = `id, name, type, api_key, base_url, organization, custom_headers, is_default, created_at, updated_at`

// GetProvider returns the provider with id.
func (s *SQLiteStore) GetProvider(ctx context.Context, id int64) (*ProviderRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+providerColumns+` FROM provider_configs WHERE id = ?`, id)
	rec, err := scanProvider(row)
	if err != nil {
		return nil, s.wrap(err, "get_provider")
	}
	return rec, nil
}

// DefaultProvider returns the provider flagged as default.
func (s *SQLiteStore) DefaultProvider(ctx context.Context) (*ProviderRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+providerColumns+` FROM provider_configs WHERE is_default = 1 LIMIT 1`)
	rec, err := scanProvider(row)
	if err != nil {
		return nil, s.wrap(err, "default_provider")
	}
	return rec, nil
}

// ListProviders returns every provider, the default first, then by name.
func (s *SQLiteStore) ListProviders(ctx context.Context) ([]*ProviderRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+providerColumns+` FROM provider_configs ORDER BY is_default DESC, name ASC, id ASC`)
	if err != nil {
		return nil, NewStorageError(backendSQLite, "list_providers", err)
	}
	defer rows.Close()

	recs := []*ProviderRecord{}
	for rows.Next() {
		rec, err := scanProvider(rows)
		if err != nil {
			return nil, NewStorageError(backendSQLite, "scan_provider", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError(backendSQLite, "list_providers", err)
	}
	return recs, nil
}

// UpdateProvider applies a partial update and bumps updated_at. An empty
// update only checks that the provider exists.
func (s *SQLiteStore) UpdateProvider(ctx context.Context, id int64, upd ProviderUpdate) error {
	if upd.IsEmpty() {
		_, err := s.GetProvider(ctx, id)
		return err
	}

	var (
		sets []string
		args []any
	)
	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Type != nil {
		sets = append(sets, "type = ?")
		args = append(args, string(*upd.Type))
	}
	if upd.APIKey != nil {
		sets = append(sets, "api_key = ?")
		args = append(args, *upd.APIKey)
	}
	if upd.BaseURL != nil {
		sets = append(sets, "base_url = ?")
		args = append(args, nullString(*upd.BaseURL))
	}
	if upd.Organization != nil {
		sets = append(sets, "organization = ?")
		args = append(args, nullString(*upd.Organization))
	}
	if upd.CustomHeaders != nil {
		headers, err := encodeHeaders(*upd.CustomHeaders)
		if err != nil {
			return NewStorageError(backendSQLite, "update_provider", err)
		}
		sets = append(sets, "custom_headers = ?")
		args = append(args, headers)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, toMillis(s.stamp()), id)

	res, err := s.db.ExecContext(ctx,
		`UPDATE provider_configs SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	return s.affected(res, err, "update_provider")
}

// SetDefaultProvider makes id the only default provider.
func (s *SQLiteStore) SetDefaultProvider(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewStorageError(backendSQLite, "set_default_provider", err)
	}
	defer tx.Rollback()

	if err := exists(ctx, tx, `SELECT 1 FROM provider_configs WHERE id = ?`, id); err != nil {
		return s.wrap(err, "set_default_provider")
	}
	if _, err := tx.ExecContext(ctx, `UPDATE provider_configs SET is_default = 0 WHERE is_default = 1`); err != nil {
		return NewStorageError(backendSQLite, "set_default_provider", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE provider_configs SET is_default = 1 WHERE id = ?`, id); err != nil {
		return NewStorageError(backendSQLite, "set_default_provider", err)
	}

	if err := tx.Commit(); err != nil {
		return NewStorageError(backendSQLite, "set_default_provider", err)
	}
	return nil
}

// DeleteProvider deletes a provider and its model preferences. Messages
// and the user selection that referenced it keep a NULL provider.
func (s *SQLiteStore) DeleteProvider(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM provider_configs WHERE id = ?`, id)
	return s.affected(res, err, "delete_provider")
}

// TouchModelPreference records that a model was just used.
func (s *SQLiteStore) TouchModelPreference(ctx context.Context, providerID int64, modelID, modelName string) error {
	if modelName == "" {
		modelName = modelID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewStorageError(backendSQLite, "touch_model_preference", err)
	}
	defer tx.Rollback()

	if err := exists(ctx, tx, `SELECT 1 FROM provider_configs WHERE id = ?`, providerID); err != nil {
		return s.wrap(err, "touch_model_preference")
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO model_preferences (provider_id, model_id, model_name, is_favorite, last_used)
		 VALUES (?, ?, ?, 0, ?)
		 ON CONFLICT(provider_id, model_id)
		 DO UPDATE SET model_name = excluded.model_name, last_used = excluded.last_used`,
		providerID, modelID, modelName, toMillis(s.stamp()))
	if err != nil {
		return NewStorageError(backendSQLite, "touch_model_preference", err)
	}

	if err := tx.Commit(); err != nil {
		return NewStorageError(backendSQLite, "touch_model_preference", err)
	}
	return nil
}

// ListModelPreferences returns a provider's preferences, favorites first,
// then most recently used.
func (s *SQLiteStore) ListModelPreferences(ctx context.Context, providerID int64) ([]*ModelPreference, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, provider_id, model_id, model_name, is_favorite, last_used
		 FROM model_preferences WHERE provider_id = ?
		 ORDER BY is_favorite DESC, last_used IS NULL, last_used DESC, model_id ASC`, providerID)
	if err != nil {
		return nil, NewStorageError(backendSQLite, "list_model_preferences", err)
	}
	defer rows.Close()

	prefs := []*ModelPreference{}
	for rows.Next() {
		var (
			pref     ModelPreference
			favorite int
			lastUsed sql.NullInt64
		)
		if err := rows.Scan(&pref.ID, &pref.ProviderID, &pref.ModelID, &pref.ModelName, &favorite, &lastUsed); err != nil {
			return nil, NewStorageError(backendSQLite, "scan_model_preference", err)
		}
		pref.IsFavorite = favorite == 1
		if lastUsed.Valid {
			t := fromMillis(lastUsed.Int64)
			pref.LastUsed = &t
		}
		prefs = append(prefs, &pref)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError(backendSQLite, "list_model_preferences", err)
	}
	return prefs, nil
}

// ToggleFavorite flips a model's favorite flag. A model without a
// preference row becomes a favorite.
func (s *SQLiteStore) ToggleFavorite(ctx context.Context, providerID int64, modelID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewStorageError(backendSQLite, "toggle_favorite", err)
	}
	defer tx.Rollback()

	if err := exists(ctx, tx, `SELECT 1 FROM provider_configs WHERE id = ?`, providerID); err != nil {
		return s.wrap(err, "toggle_favorite")
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO model_preferences (provider_id, model_id, model_name, is_favorite)
		 VALUES (?, ?, ?, 1)
		 ON CONFLICT(provider_id, model_id)
		 DO UPDATE SET is_favorite = CASE WHEN is_favorite = 1 THEN 0 ELSE 1 END`,
		providerID, modelID, modelID)
	if err != nil {
		return NewStorageError(backendSQLite, "toggle_favorite", err)
	}

	if err := tx.Commit(); err != nil {
		return NewStorageError(backendSQLite, "toggle_favorite", err)
	}
	return nil
}

// UserPreferences returns the saved selection, or ErrNotFound before the
// first SetUserPreferences.
func (s *SQLiteStore) UserPreferences(ctx context.Context) (*UserPreferences, error) {
	var (
		providerID sql.NullInt64
		modelID    sql.NullString
		updated    int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT selected_provider_id, selected_model_id, updated_at FROM user_preferences WHERE id = 1`).
		Scan(&providerID, &modelID, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, NewStorageError(backendSQLite, "user_preferences", err)
	}

	prefs := &UserPreferences{
		SelectedProviderID: int64Ptr(providerID),
		UpdatedAt:          fromMillis(updated),
	}
	if modelID.Valid {
		prefs.SelectedModelID = &modelID.String
	}
	return prefs, nil
}

// SetUserPreferences replaces the saved selection. A non-nil providerID
// must name an existing provider.
func (s *SQLiteStore) SetUserPreferences(ctx context.Context, providerID *int64, modelID *string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewStorageError(backendSQLite, "set_user_preferences", err)
	}
	defer tx.Rollback()

	if providerID != nil {
		if err := exists(ctx, tx, `SELECT 1 FROM provider_configs WHERE id = ?`, *providerID); err != nil {
			return s.wrap(err, "set_user_preferences")
		}
	}

	var model sql.NullString
	if modelID != nil {
		model = sql.NullString{String: *modelID, Valid: true}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_preferences (id, selected_provider_id, selected_model_id, updated_at)
		 VALUES (1, ?, ?, ?)
		 ON CONFLICT(id)
		 DO UPDATE SET selected_provider_id = excluded.selected_provider_id,
		               selected_model_id = excluded.selected_model_id,
		               updated_at = excluded.updated_at`,
		nullInt64(providerID), model, toMillis(s.stamp()))
	if err != nil {
		return NewStorageError(backendSQLite, "set_user_preferences", err)
	}

	if err := tx.Commit(); err != nil {
		return NewStorageError(backendSQLite, "set_user_preferences", err)
	}
	return nil
}

// stamp returns the current time truncated to the stored precision.
func (s *SQLiteStore) stamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// affected maps a write with no matched row to ErrNotFound.
func (s *SQLiteStore) affected(res sql.Result, err error, op string) error {
	if err != nil {
		return NewStorageError(backendSQLite, op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return NewStorageError(backendSQLite, op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// wrap passes ErrNotFound through and wraps anything else.
func (s *SQLiteStore) wrap(err error, op string) error {
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return NewStorageError(backendSQLite, op, err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// exists returns ErrNotFound when query yields no row.
func exists(ctx context.Context, q queryRower, query string, args ...any) error {
	var one int
	err := q.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func scanProvider(row rowScanner) (*ProviderRecord, error) {
	var (
		rec          ProviderRecord
		typ          string
		baseURL      sql.NullString
		organization sql.NullString
		headers      sql.NullString
		isDefault    int
		created      int64
		updated      int64
	)
	err := row.Scan(&rec.ID, &rec.Name, &typ, &rec.APIKey, &baseURL, &organization,
		&headers, &isDefault, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rec.Type = providers.ProviderType(typ)
	rec.BaseURL = baseURL.String
	rec.Organization = organization.String
	rec.IsDefault = isDefault == 1
	rec.CreatedAt = fromMillis(created)
	rec.UpdatedAt = fromMillis(updated)

	if headers.Valid && headers.String != "" {
		if err := json.Unmarshal([]byte(headers.String), &rec.CustomHeaders); err != nil {
			return nil, fmt.Errorf("failed to decode custom_headers for provider %d: %w", rec.ID, err)
		}
	}
	return &rec, nil
}

func encodeHeaders(headers map[string]string) (sql.NullString, error) {
	if len(headers) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(headers)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode custom headers: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
