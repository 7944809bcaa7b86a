// Package api exposes the stored events over a small read-only HTTP
// surface.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/lombahub/lomba-events/internal/storage"
)

// Server serves the read API.
type Server struct {
	store *storage.Store
	log   zerolog.Logger
	mux   *mux.Router
}

// NewServer builds the router over an open store.
func NewServer(store *storage.Store, log zerolog.Logger) *Server {
	s := &Server{store: store, log: log, mux: mux.NewRouter()}

	s.mux.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.mux.HandleFunc("/api/events", s.handleListEvents).Methods(http.MethodGet)
	s.mux.HandleFunc("/api/events/{id}", s.handleGetEvent).Methods(http.MethodGet)
	s.mux.HandleFunc("/api/categories", s.handleListCategories).Methods(http.MethodGet)
	s.mux.Use(s.logRequests)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("request")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.ListEvents(r.Context())
	if err != nil {
		s.serverError(w, err, "listing events")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(events),
		"events": events,
	})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ev, err := s.store.GetEvent(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	if err != nil {
		s.serverError(w, err, "loading event")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	taxonomy, err := s.store.Categories(r.Context())
	if err != nil {
		s.serverError(w, err, "listing categories")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":      len(taxonomy),
		"categories": taxonomy,
	})
}

func (s *Server) serverError(w http.ResponseWriter, err error, msg string) {
	s.log.Error().Err(err).Msg(msg)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
