package web

import (
	"net/http"

	"github.com/sirupsen/logrus"
)

func (s *Server) handleVersus(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "deckID")
	if err != nil {
		s.respondError(w, err)
		return
	}

	bundle, err := s.store.Versus(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, bundle)
}

func (s *Server) handleMatrix(w http.ResponseWriter, r *http.Request) {
	bundle, err := s.store.Matrix(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, bundle)
}

func (s *Server) handleRecount(w http.ResponseWriter, r *http.Request) {
	summary, err := s.store.Recount(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.log.WithFields(logrus.Fields{
		"total_wins":   summary.TotalWins,
		"total_losses": summary.TotalLosses,
	}).Info("recounted deck records")

	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"total_wins":   summary.TotalWins,
		"total_losses": summary.TotalLosses,
	})
}
