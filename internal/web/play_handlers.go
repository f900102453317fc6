package web

import (
	"net/http"

	"cardfight-tracker/internal/matchup"
	"cardfight-tracker/internal/store"
)

type matchupResponse struct {
	Mode          string     `json:"mode,omitempty"`
	Deck1         store.Deck `json:"deck1"`
	Deck2         store.Deck `json:"deck2"`
	FirstPlayerID int64      `json:"first_player_id"`
}

func newMatchupResponse(m *matchup.Matchup, mode string) matchupResponse {
	return matchupResponse{
		Mode:          mode,
		Deck1:         m.Deck1,
		Deck2:         m.Deck2,
		FirstPlayerID: m.FirstPlayer.ID,
	}
}

func (s *Server) handleRandomMatchup(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = matchup.ModeAny
	}

	m, err := s.generator.Random(r.Context(), mode)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, newMatchupResponse(m, mode))
}

type fixedMatchupRequest struct {
	Deck1ID *int64 `json:"deck1_id"`
	Deck2ID *int64 `json:"deck2_id"`
}

func (s *Server) handleFixedMatchup(w http.ResponseWriter, r *http.Request) {
	var req fixedMatchupRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	if req.Deck1ID == nil || req.Deck2ID == nil {
		s.respondError(w, store.Validationf("deck1_id and deck2_id are required integers"))
		return
	}

	m, err := s.generator.Fixed(r.Context(), *req.Deck1ID, *req.Deck2ID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, newMatchupResponse(m, ""))
}
