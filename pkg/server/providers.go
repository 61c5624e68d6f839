package server

import (
	"net/http"
	"strings"

	"lite-hq/lite/pkg/providerfactory"
	"lite-hq/lite/pkg/providers"
	"lite-hq/lite/pkg/storage"
)

// providerView is a provider as returned by the API, with the key masked.
type providerView struct {
	ID            int64                  `json:"id"`
	Name          string                 `json:"name"`
	Type          providers.ProviderType `json:"type"`
	APIKey        string                 `json:"apiKey"`
	BaseURL       string                 `json:"baseUrl,omitempty"`
	Organization  string                 `json:"organization,omitempty"`
	CustomHeaders map[string]string      `json:"customHeaders,omitempty"`
	IsDefault     bool                   `json:"isDefault"`
}

func viewProvider(rec *storage.ProviderRecord) providerView {
	return providerView{
		ID:            rec.ID,
		Name:          rec.Name,
		Type:          rec.Type,
		APIKey:        providers.MaskKey(rec.APIKey),
		BaseURL:       rec.BaseURL,
		Organization:  rec.Organization,
		CustomHeaders: rec.CustomHeaders,
		IsDefault:     rec.IsDefault,
	}
}

type createProviderRequest struct {
	Name          string                 `json:"name"`
	Type          providers.ProviderType `json:"type"`
	APIKey        string                 `json:"apiKey"`
	BaseURL       string                 `json:"baseUrl"`
	Organization  string                 `json:"organization"`
	CustomHeaders map[string]string      `json:"customHeaders"`
	IsDefault     bool                   `json:"isDefault"`
}

type updateProviderRequest struct {
	Name          *string                 `json:"name"`
	Type          *providers.ProviderType `json:"type"`
	APIKey        *string                 `json:"apiKey"`
	BaseURL       *string                 `json:"baseUrl"`
	Organization  *string                 `json:"organization"`
	CustomHeaders *map[string]string      `json:"customHeaders"`
}

func (s *Server) listProviders(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.ListProviders(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	views := make([]providerView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, viewProvider(rec))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) createProvider(w http.ResponseWriter, r *http.Request) {
	var req createProviderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	rec := &storage.ProviderRecord{
		Name:          strings.TrimSpace(req.Name),
		Type:          req.Type,
		APIKey:        req.APIKey,
		BaseURL:       req.BaseURL,
		Organization:  req.Organization,
		CustomHeaders: req.CustomHeaders,
	}
	if rec.Name == "" {
		rec.Name = string(rec.Type)
	}

	if res := providerfactory.ValidateConfig(rec.Config()); !res.Valid {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:  "invalid provider configuration",
			Errors: res.Errors,
		})
		return
	}

	id, err := s.store.CreateProvider(r.Context(), rec, req.IsDefault)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.store.GetProvider(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.InfoContext(r.Context(), "provider created",
		"provider_id", id,
		"type", string(created.Type),
		"default", created.IsDefault,
	)
	writeJSON(w, http.StatusCreated, viewProvider(created))
}

func (s *Server) updateProvider(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req updateProviderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	upd := storage.ProviderUpdate{
		Name:          req.Name,
		Type:          req.Type,
		APIKey:        req.APIKey,
		BaseURL:       req.BaseURL,
		Organization:  req.Organization,
		CustomHeaders: req.CustomHeaders,
	}
	if upd.IsEmpty() {
		s.writeError(w, r, badRequest("no fields to update"))
		return
	}

	old, err := s.store.GetProvider(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	merged := *old
	applyUpdate(&merged, upd)
	if res := providerfactory.ValidateConfig(merged.Config()); !res.Valid {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:  "invalid provider configuration",
			Errors: res.Errors,
		})
		return
	}

	if err := s.store.UpdateProvider(r.Context(), id, upd); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.registry.RemoveProvider(old.Config())

	updated, err := s.store.GetProvider(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewProvider(updated))
}

func applyUpdate(rec *storage.ProviderRecord, upd storage.ProviderUpdate) {
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
		rec.CustomHeaders = *upd.CustomHeaders
	}
}

func (s *Server) deleteProvider(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	old, err := s.store.GetProvider(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.DeleteProvider(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.registry.RemoveProvider(old.Config())

	s.logger.InfoContext(r.Context(), "provider deleted", "provider_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setDefaultProvider(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.SetDefaultProvider(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}

	rec, err := s.store.GetProvider(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewProvider(rec))
}
