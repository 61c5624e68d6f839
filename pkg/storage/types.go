package storage

import (
	"time"

	"lite-hq/lite/pkg/providers"
)

// DefaultChatTitle is used when a chat is created without a title.
const DefaultChatTitle = "New Chat"

// Chat is a conversation.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message is one persisted turn of a chat.
type Message struct {
	ID      int64  `json:"id"`
	ChatID  string `json:"chatId"`
	Role    string `json:"role"`
	Content string `json:"content"`

	// Model and ProviderID are set on assistant messages.
	Model      string `json:"model,omitempty"`
	ProviderID *int64 `json:"providerId,omitempty"`

	// Token counts are only known when the vendor reported usage.
	TokensPrompt     *int `json:"tokensPrompt,omitempty"`
	TokensCompletion *int `json:"tokensCompletion,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// ProviderRecord is a stored provider configuration.
type ProviderRecord struct {
	ID            int64                  `json:"id"`
	Name          string                 `json:"name"`
	Type          providers.ProviderType `json:"type"`
	APIKey        string                 `json:"apiKey"`
	BaseURL       string                 `json:"baseUrl,omitempty"`
	Organization  string                 `json:"organization,omitempty"`
	CustomHeaders map[string]string      `json:"customHeaders,omitempty"`
	IsDefault     bool                   `json:"isDefault"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

// Config returns the adapter configuration for the record.
func (r *ProviderRecord) Config() providers.ProviderConfig {
	var headers map[string]string
	if len(r.CustomHeaders) > 0 {
		headers = make(map[string]string, len(r.CustomHeaders))
		for k, v := range r.CustomHeaders {
			headers[k] = v
		}
	}
	return providers.ProviderConfig{
		Type:          r.Type,
		APIKey:        r.APIKey,
		BaseURL:       r.BaseURL,
		Organization:  r.Organization,
		CustomHeaders: headers,
	}
}

// ProviderUpdate is a partial update. Nil fields are left unchanged; an
// empty BaseURL or Organization clears the column.
type ProviderUpdate struct {
	Name          *string
	Type          *providers.ProviderType
	APIKey        *string
	BaseURL       *string
	Organization  *string
	CustomHeaders *map[string]string
}

// IsEmpty reports whether the update changes nothing.
func (u ProviderUpdate) IsEmpty() bool {
	return u.Name == nil && u.Type == nil && u.APIKey == nil &&
		u.BaseURL == nil && u.Organization == nil && u.CustomHeaders == nil
}

// ModelPreference records use and favorite status of a model.
type ModelPreference struct {
	ID         int64      `json:"id"`
	ProviderID int64      `json:"providerId"`
	ModelID    string     `json:"modelId"`
	ModelName  string     `json:"modelName"`
	IsFavorite bool       `json:"isFavorite"`
	LastUsed   *time.Time `json:"lastUsed,omitempty"`
}

// UserPreferences is the single row of UI selections.
type UserPreferences struct {
	SelectedProviderID *int64    `json:"selectedProviderId"`
	SelectedModelID    *string   `json:"selectedModelId"`
	UpdatedAt          time.Time `json:"updatedAt"`
}
