package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"lite-hq/lite/pkg/storage"
)

type chatTitleRequest struct {
	Title string `json:"title"`
}

type messageUpdateRequest struct {
	Content *string `json:"content"`
}

func (s *Server) listChats(w http.ResponseWriter, r *http.Request) {
	chats, err := s.store.ListChats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if chats == nil {
		chats = []*storage.Chat{}
	}
	writeJSON(w, http.StatusOK, chats)
}

func (s *Server) createChat(w http.ResponseWriter, r *http.Request) {
	var req chatTitleRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	c, err := s.store.CreateChat(r.Context(), strings.TrimSpace(req.Title))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) getChat(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetChat(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) renameChat(w http.ResponseWriter, r *http.Request) {
	var req chatTitleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		s.writeError(w, r, badRequest("title is required"))
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.store.UpdateChatTitle(r.Context(), id, title); err != nil {
		s.writeError(w, r, err)
		return
	}

	c, err := s.store.GetChat(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteChat(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteChat(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetChat(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}

	msgs, err := s.store.ListMessages(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []*storage.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) updateMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req messageUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Content == nil {
		s.writeError(w, r, badRequest("content is required"))
		return
	}

	if err := s.store.UpdateMessage(r.Context(), id, *req.Content); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.DeleteMessage(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
