package storage

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store in process memory. It follows the SQLite
// backend's ordering and cascade rules and is meant for tests and
// throwaway runs.
type MemoryStore struct {
	mu sync.RWMutex

	now func() time.Time

	chats      map[string]*Chat
	chatSeq    map[string]int64
	messages   map[int64]*Message
	providers  map[int64]*ProviderRecord
	modelPrefs map[int64]*ModelPreference
	userPrefs  *UserPreferences

	nextChat     int64
	nextMessage  int64
	nextProvider int64
	nextPref     int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := buildOptions(opts)
	return &MemoryStore{
		now:        o.now,
		chats:      make(map[string]*Chat),
		chatSeq:    make(map[string]int64),
		messages:   make(map[int64]*Message),
		providers:  make(map[int64]*ProviderRecord),
		modelPrefs: make(map[int64]*ModelPreference),
	}
}

func (s *MemoryStore) stamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) CreateChat(ctx context.Context, title string) (*Chat, error) {
	if title == "" {
		title = DefaultChatTitle
	}
	chat := &Chat{ID: uuid.NewString(), Title: title, CreatedAt: s.stamp()}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextChat++
	s.chats[chat.ID] = chat
	s.chatSeq[chat.ID] = s.nextChat

	c := *chat
	return &c, nil
}

func (s *MemoryStore) GetChat(ctx context.Context, id string) (*Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chat, ok := s.chats[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *chat
	return &c, nil
}

func (s *MemoryStore) ListChats(ctx context.Context) ([]*Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chats := make([]*Chat, 0, len(s.chats))
	for _, chat := range s.chats {
		c := *chat
		chats = append(chats, &c)
	}
	slices.SortFunc(chats, func(a, b *Chat) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(s.chatSeq[b.ID], s.chatSeq[a.ID])
	})
	return chats, nil
}

func (s *MemoryStore) UpdateChatTitle(ctx context.Context, id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[id]
	if !ok {
		return ErrNotFound
	}
	chat.Title = title
	return nil
}

func (s *MemoryStore) DeleteChat(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chats[id]; !ok {
		return ErrNotFound
	}
	s.deleteChatLocked(id)
	return nil
}

func (s *MemoryStore) DeleteChatsBefore(ctx context.Context, t time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := t.UTC().Truncate(time.Millisecond)
	var n int64
	for id, chat := range s.chats {
		if chat.CreatedAt.Before(cutoff) {
			s.deleteChatLocked(id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) deleteChatLocked(id string) {
	delete(s.chats, id)
	delete(s.chatSeq, id)
	for mid, msg := range s.messages {
		if msg.ChatID == id {
			delete(s.messages, mid)
		}
	}
}

func (s *MemoryStore) SaveMessage(ctx context.Context, msg *Message) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chats[msg.ChatID]; !ok {
		return 0, ErrNotFound
	}

	s.nextMessage++
	msg.ID = s.nextMessage
	msg.CreatedAt = s.stamp()

	m := *msg
	s.messages[m.ID] = &m
	return m.ID, nil
}

func (s *MemoryStore) ListMessages(ctx context.Context, chatID string) ([]*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := []*Message{}
	for _, msg := range s.messages {
		if msg.ChatID == chatID {
			m := *msg
			msgs = append(msgs, &m)
		}
	}
	slices.SortFunc(msgs, func(a, b *Message) int { return cmp.Compare(a.ID, b.ID) })
	return msgs, nil
}

func (s *MemoryStore) UpdateMessage(ctx context.Context, id int64, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[id]
	if !ok {
		return ErrNotFound
	}
	msg.Content = content
	return nil
}

func (s *MemoryStore) DeleteMessage(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[id]; !ok {
		return ErrNotFound
	}
	delete(s.messages, id)
	return nil
}

func (s *MemoryStore) CreateProvider(ctx context.Context, rec *ProviderRecord, setDefault bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if setDefault {
		s.clearDefaultLocked()
	}

	now := s.stamp()
	s.nextProvider++
	rec.ID = s.nextProvider
	rec.IsDefault = setDefault
	rec.CreatedAt = now
	rec.UpdatedAt = now

	s.providers[rec.ID] = copyProvider(rec)
	return rec.ID, nil
}

func (s *MemoryStore) GetProvider(ctx context.Context, id int64) (*ProviderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.providers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyProvider(rec), nil
}

func (s *MemoryStore) DefaultProvider(ctx context.Context) (*ProviderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.providers {
		if rec.IsDefault {
			return copyProvider(rec), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListProviders(ctx context.Context) ([]*ProviderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]*ProviderRecord, 0, len(s.providers))
	for _, rec := range s.providers {
		recs = append(recs, copyProvider(rec))
	}
	slices.SortFunc(recs, func(a, b *ProviderRecord) int {
		if a.IsDefault != b.IsDefault {
			if a.IsDefault {
				return -1
			}
			return 1
		}
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return recs, nil
}

func (s *MemoryStore) UpdateProvider(ctx context.Context, id int64, upd ProviderUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.providers[id]
	if !ok {
		return ErrNotFound
	}
	if upd.IsEmpty() {
		return nil
	}

	if upd.Name != nil {
		rec.Name = *upd.Name
	}
	if upd.Type != nil {
		rec.Type = *upd.Type
	}
	if upd.APIKey != nil {
		rec.APIKey = *upd.APIKey
	}
	if upd.BaseURL != nil {
		rec.BaseURL = *upd.BaseURL
	}
	if upd.Organization != nil {
		rec.Organization = *upd.Organization
	}
	if upd.CustomHeaders != nil {
		rec.CustomHeaders = maps.Clone(*upd.CustomHeaders)
		if len(rec.CustomHeaders) == 0 {
			rec.CustomHeaders = nil
		}
	}
	rec.UpdatedAt = s.stamp()
	return nil
}

func (s *MemoryStore) SetDefaultProvider(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.providers[id]
	if !ok {
		return ErrNotFound
	}
	s.clearDefaultLocked()
	rec.IsDefault = true
	return nil
}

func (s *MemoryStore) clearDefaultLocked() {
	for _, rec := range s.providers {
		rec.IsDefault = false
	}
}

func (s *MemoryStore) DeleteProvider(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.providers[id]; !ok {
		return ErrNotFound
	}
	delete(s.providers, id)

	for pid, pref := range s.modelPrefs {
		if pref.ProviderID == id {
			delete(s.modelPrefs, pid)
		}
	}
	for _, msg := range s.messages {
		if msg.ProviderID != nil && *msg.ProviderID == id {
			msg.ProviderID = nil
		}
	}
	if s.userPrefs != nil && s.userPrefs.SelectedProviderID != nil && *s.userPrefs.SelectedProviderID == id {
		s.userPrefs.SelectedProviderID = nil
	}
	return nil
}

func (s *MemoryStore) findPrefLocked(providerID int64, modelID string) *ModelPreference {
	for _, pref := range s.modelPrefs {
		if pref.ProviderID == providerID && pref.ModelID == modelID {
			return pref
		}
	}
	return nil
}

func (s *MemoryStore) addPrefLocked(providerID int64, modelID, modelName string) *ModelPreference {
	s.nextPref++
	pref := &ModelPreference{
		ID:         s.nextPref,
		ProviderID: providerID,
		ModelID:    modelID,
		ModelName:  modelName,
	}
	s.modelPrefs[pref.ID] = pref
	return pref
}

func (s *MemoryStore) TouchModelPreference(ctx context.Context, providerID int64, modelID, modelName string) error {
	if modelName == "" {
		modelName = modelID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.providers[providerID]; !ok {
		return ErrNotFound
	}

	pref := s.findPrefLocked(providerID, modelID)
	if pref == nil {
		pref = s.addPrefLocked(providerID, modelID, modelName)
	}
	now := s.stamp()
	pref.ModelName = modelName
	pref.LastUsed = &now
	return nil
}

func (s *MemoryStore) ListModelPreferences(ctx context.Context, providerID int64) ([]*ModelPreference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefs := []*ModelPreference{}
	for _, pref := range s.modelPrefs {
		if pref.ProviderID == providerID {
			p := *pref
			if pref.LastUsed != nil {
				t := *pref.LastUsed
				p.LastUsed = &t
			}
			prefs = append(prefs, &p)
		}
	}
	slices.SortFunc(prefs, compareModelPreferences)
	return prefs, nil
}

// compareModelPreferences orders favorites first, then most recently used,
// then never used, then by model id.
func compareModelPreferences(a, b *ModelPreference) int {
	if a.IsFavorite != b.IsFavorite {
		if a.IsFavorite {
			return -1
		}
		return 1
	}
	switch {
	case a.LastUsed != nil && b.LastUsed == nil:
		return -1
	case a.LastUsed == nil && b.LastUsed != nil:
		return 1
	case a.LastUsed != nil && b.LastUsed != nil:
		if c := b.LastUsed.Compare(*a.LastUsed); c != 0 {
			return c
		}
	}
	return strings.Compare(a.ModelID, b.ModelID)
}

func (s *MemoryStore) ToggleFavorite(ctx context.Context, providerID int64, modelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.providers[providerID]; !ok {
		return ErrNotFound
	}

	pref := s.findPrefLocked(providerID, modelID)
	if pref == nil {
		pref = s.addPrefLocked(providerID, modelID, modelID)
		pref.IsFavorite = true
		return nil
	}
	pref.IsFavorite = !pref.IsFavorite
	return nil
}

func (s *MemoryStore) UserPreferences(ctx context.Context) (*UserPreferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.userPrefs == nil {
		return nil, ErrNotFound
	}
	p := *s.userPrefs
	if p.SelectedProviderID != nil {
		id := *p.SelectedProviderID
		p.SelectedProviderID = &id
	}
	if p.SelectedModelID != nil {
		m := *p.SelectedModelID
		p.SelectedModelID = &m
	}
	return &p, nil
}

func (s *MemoryStore) SetUserPreferences(ctx context.Context, providerID *int64, modelID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs := &UserPreferences{UpdatedAt: s.stamp()}
	if providerID != nil {
		if _, ok := s.providers[*providerID]; !ok {
			return ErrNotFound
		}
		id := *providerID
		prefs.SelectedProviderID = &id
	}
	if modelID != nil {
		m := *modelID
		prefs.SelectedModelID = &m
	}
	s.userPrefs = prefs
	return nil
}

func copyProvider(rec *ProviderRecord) *ProviderRecord {
	c := *rec
	c.CustomHeaders = maps.Clone(rec.CustomHeaders)
	if len(c.CustomHeaders) == 0 {
		c.CustomHeaders = nil
	}
	return &c
}
