package web

import (
	"net/http"
	"strings"

	"cardfight-tracker/internal/store"
)

func includeInactiveParam(r *http.Request) bool {
	switch strings.ToLower(r.URL.Query().Get("include_inactive")) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func (s *Server) handleListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := s.store.ListDecks(r.Context(), includeInactiveParam(r))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, decks)
}

type createDeckRequest struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Active *bool  `json:"active"`
}

func (s *Server) handleCreateDeck(w http.ResponseWriter, r *http.Request) {
	var req createDeckRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	deck, err := s.store.CreateDeck(r.Context(), req.Name, req.Type, active)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, deck)
}

type updateDeckRequest struct {
	Name   *string `json:"name"`
	Active *bool   `json:"active"`
}

func (s *Server) handleUpdateDeck(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "deckID")
	if err != nil {
		s.respondError(w, err)
		return
	}

	var req updateDeckRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	deck, err := s.store.UpdateDeck(r.Context(), id, store.DeckUpdate{
		Name:   req.Name,
		Active: req.Active,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, deck)
}

func (s *Server) handleDeleteDeck(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "deckID")
	if err != nil {
		s.respondError(w, err)
		return
	}

	if err := s.store.DeleteDeck(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
