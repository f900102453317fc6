package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"cardfight-tracker/internal/store"
)

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Error("failed to encode response")
	}
}

// respondError maps the store's error kinds to HTTP statuses. Anything
// unrecognized is an infrastructure failure and surfaces as a 500.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	var (
		validation *store.ValidationError
		notFound   *store.NotFoundError
		conflict   *store.ConflictError
	)

	status := http.StatusInternalServerError
	msg := "internal server error"

	switch {
	case errors.As(err, &validation):
		status, msg = http.StatusBadRequest, validation.Msg
	case errors.As(err, &notFound):
		status, msg = http.StatusNotFound, notFound.Msg
	case errors.As(err, &conflict):
		status, msg = http.StatusConflict, conflict.Msg
	default:
		s.log.WithError(err).Error("request failed")
	}

	s.respondJSON(w, status, map[string]string{"error": msg})
}

// urlID parses an integer id out of a chi route parameter.
func urlID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, store.Validationf("%s must be an integer", name)
	}
	return id, nil
}

// urlIntParam parses an integer out of a query-string value.
func urlIntParam(value, name string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, store.Validationf("%s must be an integer", name)
	}
	return id, nil
}

// dateTimeLayouts are the accepted date_played shapes, most specific
// first. Values without a zone are interpreted in local time.
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseDateTime(value string) (time.Time, error) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, store.Validationf("date_played must be ISO-like, e.g. 2025-10-31 19:30")
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return store.Validationf("invalid JSON body")
	}
	return nil
}
