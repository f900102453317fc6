package web

import (
	"encoding/json"
	"net/http"

	"cardfight-tracker/internal/store"
)

type createMatchRequest struct {
	Deck1ID       *int64  `json:"deck1_id"`
	Deck2ID       *int64  `json:"deck2_id"`
	WinnerID      *int64  `json:"winner_id"`
	FirstPlayerID *int64  `json:"first_player_id"`
	Format        *string `json:"format"`
	Notes         string  `json:"notes"`
	DatePlayed    string  `json:"date_played"`
}

func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	if req.Deck1ID == nil || req.Deck2ID == nil {
		s.respondError(w, store.Validationf("deck1_id and deck2_id are required integers"))
		return
	}

	nm := store.NewMatch{
		Deck1ID:       *req.Deck1ID,
		Deck2ID:       *req.Deck2ID,
		WinnerID:      req.WinnerID,
		FirstPlayerID: req.FirstPlayerID,
		Format:        req.Format,
		Notes:         req.Notes,
	}
	if req.DatePlayed != "" {
		t, err := parseDateTime(req.DatePlayed)
		if err != nil {
			s.respondError(w, err)
			return
		}
		nm.DatePlayed = &t
	}

	match, err := s.store.CreateMatch(r.Context(), nm)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, match)
}

func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	f, err := matchFilterFromQuery(r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	matches, err := s.store.ListMatches(r.Context(), *f)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if matches == nil {
		matches = []store.MatchView{}
	}
	s.respondJSON(w, http.StatusOK, matches)
}

func matchFilterFromQuery(r *http.Request) (*store.MatchFilter, error) {
	var f store.MatchFilter
	q := r.URL.Query()

	if v := q.Get("deck_id"); v != "" {
		id, err := urlIntParam(v, "deck_id")
		if err != nil {
			return nil, err
		}
		f.DeckID = &id
	}
	if v := q.Get("format"); v != "" {
		f.Format = &v
	}
	if v := q.Get("result"); v != "" {
		f.Result = &v
	}
	if v := q.Get("since"); v != "" {
		t, err := parseDateTime(v)
		if err != nil {
			return nil, store.Validationf("since must be a date, e.g. 2025-10-31")
		}
		f.Since = &t
	}
	if v := q.Get("until"); v != "" {
		t, err := parseDateTime(v)
		if err != nil {
			return nil, store.Validationf("until must be a date, e.g. 2025-10-31")
		}
		f.Until = &t
	}
	if v := q.Get("q"); v != "" {
		f.NotesContains = &v
	}
	return &f, nil
}

func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "matchID")
	if err != nil {
		s.respondError(w, err)
		return
	}

	match, err := s.store.GetMatch(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, match)
}

// handleUpdateMatch decodes the PATCH body field by field so "absent" and
// "set to null" stay distinct for winner, first player and format.
func (s *Server) handleUpdateMatch(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "matchID")
	if err != nil {
		s.respondError(w, err)
		return
	}

	var raw map[string]json.RawMessage
	if err := decodeJSON(r, &raw); err != nil {
		s.respondError(w, err)
		return
	}

	upd, err := matchUpdateFromRaw(raw)
	if err != nil {
		s.respondError(w, err)
		return
	}

	match, err := s.store.UpdateMatch(r.Context(), id, *upd)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, match)
}

func matchUpdateFromRaw(raw map[string]json.RawMessage) (*store.MatchUpdate, error) {
	var upd store.MatchUpdate

	if v, ok := raw["deck1_id"]; ok {
		if err := json.Unmarshal(v, &upd.Deck1ID); err != nil || upd.Deck1ID == nil {
			return nil, store.Validationf("deck1_id must be an integer")
		}
	}
	if v, ok := raw["deck2_id"]; ok {
		if err := json.Unmarshal(v, &upd.Deck2ID); err != nil || upd.Deck2ID == nil {
			return nil, store.Validationf("deck2_id must be an integer")
		}
	}
	if v, ok := raw["winner_id"]; ok {
		upd.WinnerID.Set = true
		if err := json.Unmarshal(v, &upd.WinnerID.Value); err != nil {
			return nil, store.Validationf("winner_id must be an integer or null")
		}
	}
	if v, ok := raw["first_player_id"]; ok {
		upd.FirstPlayerID.Set = true
		if err := json.Unmarshal(v, &upd.FirstPlayerID.Value); err != nil {
			return nil, store.Validationf("first_player_id must be an integer or null")
		}
	}
	if v, ok := raw["format"]; ok {
		upd.Format.Set = true
		if err := json.Unmarshal(v, &upd.Format.Value); err != nil {
			return nil, store.Validationf("format must be a string or null")
		}
	}
	if v, ok := raw["notes"]; ok {
		if err := json.Unmarshal(v, &upd.Notes); err != nil || upd.Notes == nil {
			return nil, store.Validationf("notes must be a string")
		}
	}
	if v, ok := raw["date_played"]; ok {
		var value string
		if err := json.Unmarshal(v, &value); err != nil || value == "" {
			return nil, store.Validationf("date_played must be ISO-like, e.g. 2025-10-31 19:30")
		}
		t, err := parseDateTime(value)
		if err != nil {
			return nil, err
		}
		upd.DatePlayed = &t
	}

	return &upd, nil
}

func (s *Server) handleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "matchID")
	if err != nil {
		s.respondError(w, err)
		return
	}

	if err := s.store.DeleteMatch(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
