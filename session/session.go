// Package session tracks logged-in users for the presentation layer.
//
// Sessions replace ambient login state: each is an explicit object
// created by Login, looked up per request, and discarded by Logout.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session identifies one logged-in user.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Manager holds active sessions. Safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]Session)}
}

// Login creates a session for an already-authenticated user.
func (m *Manager) Login(userID string) Session {
	s := Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.sessions[s.Token] = s
	m.mu.Unlock()

	return s
}

// Get looks up a session by token.
func (m *Manager) Get(token string) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[token]
	return s, ok
}

// Logout discards a session. It reports whether the token was active.
func (m *Manager) Logout(token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[token]; !ok {
		return false
	}
	delete(m.sessions, token)
	return true
}
