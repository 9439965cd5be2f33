package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/robertmeta/morning-cli/catalog"
	"github.com/robertmeta/morning-cli/model"
	"github.com/robertmeta/morning-cli/recommend"
	"github.com/robertmeta/morning-cli/session"
	"github.com/robertmeta/morning-cli/store"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserID   string `json:"user_id"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	ok, err := s.store.Authenticate(in.UserID, in.Password)
	if err != nil {
		s.log.Error().Err(err).Msg("authentication check failed")
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	if !ok {
		http.Error(w, "authentication failed", http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, s.sessions.Login(in.UserID))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(sessionHeader)
	if !s.sessions.Logout(token) {
		http.Error(w, "no active session", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleRecommendation runs one full pass: catalog load, weather fetch,
// scoring. Without a session token it serves the anonymous random path.
func (s *Server) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = string(model.ModeCommute)
	}

	var userID string
	if sess, ok := s.currentSession(r); ok {
		userID = sess.UserID
	}

	items, err := catalog.Load(s.catalogPath)
	if err != nil {
		s.log.Error().Err(err).Msg("catalog load failed")
		http.Error(w, "catalog unavailable", http.StatusServiceUnavailable)
		return
	}

	obs := s.weather.Current(r.Context())

	req, err := recommend.BuildRequest(userID, obs.Condition, mode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := s.engine.Recommend(req, items)
	if err != nil {
		s.log.Error().Err(err).Msg("recommendation failed")
		http.Error(w, "recommendation unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"mode":           req.Mode,
		"weather":        obs,
		"recommendation": rec,
	})
}

// handleFeedback appends one like/dislike event. Anonymous feedback is
// rejected here, before it reaches the core.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(r)
	if !ok {
		http.Error(w, "login required", http.StatusUnauthorized)
		return
	}

	var in struct {
		MenuName string `json:"menu_name"`
		Feedback string `json:"feedback"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	ft, err := model.ParseFeedbackType(in.Feedback)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.store.RecordFeedback(sess.UserID, in.MenuName, ft); err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			s.log.Error().Err(err).Msg("feedback append failed")
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.weather.Current(r.Context()))
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	items, err := catalog.Load(s.catalogPath)
	if err != nil {
		s.log.Error().Err(err).Msg("catalog load failed")
		http.Error(w, "catalog unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) currentSession(r *http.Request) (session.Session, bool) {
	token := r.Header.Get(sessionHeader)
	if token == "" {
		return session.Session{}, false
	}
	return s.sessions.Get(token)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
