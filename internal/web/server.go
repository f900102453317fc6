package web

import (
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"cardfight-tracker/internal/matchup"
	"cardfight-tracker/internal/store"
)

// Server holds the HTTP server and its dependencies.
type Server struct {
	router    *chi.Mux
	store     store.Store
	generator *matchup.Generator
	templates *template.Template
	log       *logrus.Logger
}

// NewServer creates a new HTTP server over the store and matchup
// generator.
func NewServer(st store.Store, gen *matchup.Generator, log *logrus.Logger) (*Server, error) {
	s := &Server{
		router:    chi.NewRouter(),
		store:     st,
		generator: gen,
		log:       log,
	}

	if err := s.loadTemplates(); err != nil {
		return nil, err
	}

	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	r := s.router

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleIndex)

	r.Route("/api", func(r chi.Router) {
		r.Get("/decks", s.handleListDecks)
		r.Post("/decks", s.handleCreateDeck)
		r.Patch("/decks/{deckID}", s.handleUpdateDeck)
		r.Delete("/decks/{deckID}", s.handleDeleteDeck)

		r.Get("/matches", s.handleListMatches)
		r.Post("/matches", s.handleCreateMatch)
		r.Get("/matches/{matchID}", s.handleGetMatch)
		r.Patch("/matches/{matchID}", s.handleUpdateMatch)
		r.Delete("/matches/{matchID}", s.handleDeleteMatch)

		r.Get("/random", s.handleRandomMatchup)
		r.Post("/fixed", s.handleFixedMatchup)

		r.Get("/stats/versus/{deckID}", s.handleVersus)
		r.Get("/stats/matrix", s.handleMatrix)

		r.Get("/admin/recount", s.handleRecount)
		r.Post("/admin/recount", s.handleRecount)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
