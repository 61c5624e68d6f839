package server

import (
	"errors"
	"net/http"

	"lite-hq/lite/pkg/providers"
	"lite-hq/lite/pkg/storage"
)

type favoriteRequest struct {
	ProviderID int64  `json:"providerId"`
	ModelID    string `json:"modelId"`
}

type preferencesRequest struct {
	SelectedProviderID *int64  `json:"selectedProviderId"`
	SelectedModelID    *string `json:"selectedModelId"`
}

// listModels serves GET /api/models?providerId=&refresh=. refresh=true
// bypasses the model cache.
func (s *Server) listModels(w http.ResponseWriter, r *http.Request) {
	providerID, err := queryID(r, "providerId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	refresh, err := queryBool(r, "refresh")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	models, err := s.chat.Models(r.Context(), providerID, !refresh)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if models == nil {
		models = []providers.Model{}
	}
	writeJSON(w, http.StatusOK, models)
}

func (s *Server) listModelPreferences(w http.ResponseWriter, r *http.Request) {
	providerID, err := queryID(r, "providerId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if providerID == nil {
		s.writeError(w, r, badRequest("providerId is required"))
		return
	}

	prefs, err := s.store.ListModelPreferences(r.Context(), *providerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if prefs == nil {
		prefs = []*storage.ModelPreference{}
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (s *Server) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	var req favoriteRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.ProviderID <= 0 || req.ModelID == "" {
		s.writeError(w, r, badRequest("providerId and modelId are required"))
		return
	}

	if err := s.store.ToggleFavorite(r.Context(), req.ProviderID, req.ModelID); err != nil {
		s.writeError(w, r, err)
		return
	}

	prefs, err := s.store.ListModelPreferences(r.Context(), req.ProviderID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	for _, p := range prefs {
		if p.ModelID == req.ModelID {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	s.writeError(w, r, storage.ErrNotFound)
}

// getPreferences returns null until preferences are first saved.
func (s *Server) getPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.store.UserPreferences(r.Context())
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (s *Server) putPreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.store.SetUserPreferences(r.Context(), req.SelectedProviderID, req.SelectedModelID); err != nil {
		s.writeError(w, r, err)
		return
	}

	prefs, err := s.store.UserPreferences(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}
