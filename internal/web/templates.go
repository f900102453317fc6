package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"cardfight-tracker/internal/store"
)

//go:embed templates/*.html
var templatesFS embed.FS

func (s *Server) loadTemplates() error {
	tmpl, err := template.New("").Funcs(templateFuncs()).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	s.templates = tmpl
	return nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"pct": func(p float64) string {
			return fmt.Sprintf("%.1f%%", p*100)
		},
		"fmtDate": func(t time.Time) string {
			return t.Format("2006-01-02 15:04")
		},
		"fmtFormat": func(f *string) string {
			if f == nil {
				return "-"
			}
			return *f
		},
		"resultTag": func(m store.MatchView) string {
			if m.WinnerID == nil {
				return "undecided"
			}
			if *m.WinnerID == m.Deck1ID {
				return m.Deck1Name
			}
			return m.Deck2Name
		},
	}
}

const dashboardRecentLimit = 20

// indexData feeds the dashboard page.
type indexData struct {
	Decks  []store.Deck
	Recent []store.MatchView
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	decks, err := s.store.ListDecks(r.Context(), true)
	if err != nil {
		s.respondError(w, err)
		return
	}

	recent, err := s.store.ListMatches(r.Context(), store.MatchFilter{})
	if err != nil {
		s.respondError(w, err)
		return
	}
	if len(recent) > dashboardRecentLimit {
		recent = recent[:dashboardRecentLimit]
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", indexData{Decks: decks, Recent: recent}); err != nil {
		s.log.WithError(err).Error("template error")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
