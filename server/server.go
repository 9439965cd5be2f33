// Package server exposes the recommendation flow over HTTP.
//
// It is presentation glue: every decision lives in the catalog, store
// and recommend packages; the handlers here only route, authenticate
// and render.
package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/robertmeta/morning-cli/recommend"
	"github.com/robertmeta/morning-cli/session"
	"github.com/robertmeta/morning-cli/store"
	"github.com/robertmeta/morning-cli/weather"
)

// sessionHeader carries the session token on authenticated requests.
const sessionHeader = "X-Session-Token"

// Server wires the core components behind HTTP routes.
type Server struct {
	store       *store.Store
	sessions    *session.Manager
	engine      *recommend.Engine
	weather     *weather.Client
	catalogPath string
	log         zerolog.Logger
}

// New creates a Server. The catalog is re-read from catalogPath on
// every recommendation request; it is never cached.
func New(st *store.Store, engine *recommend.Engine, wc *weather.Client, catalogPath string, log zerolog.Logger) *Server {
	return &Server{
		store:       st,
		sessions:    session.NewManager(),
		engine:      engine,
		weather:     wc,
		catalogPath: catalogPath,
		log:         log,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)
	r.HandleFunc("/recommendation", s.handleRecommendation).Methods(http.MethodGet)
	r.HandleFunc("/feedback", s.handleFeedback).Methods(http.MethodPost)
	r.HandleFunc("/weather", s.handleWeather).Methods(http.MethodGet)
	r.HandleFunc("/menu", s.handleMenu).Methods(http.MethodGet)

	return r
}

// logRequests emits one structured log line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
