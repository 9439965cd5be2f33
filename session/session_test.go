package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginAndGet(t *testing.T) {
	m := NewManager()

	s := m.Login("alice")
	assert.NotEmpty(t, s.Token)
	assert.Equal(t, "alice", s.UserID)
	assert.False(t, s.CreatedAt.IsZero())

	got, ok := m.Get(s.Token)
	require.True(t, ok)
	assert.Equal(t, s, got)
}

func TestTokensAreUnique(t *testing.T) {
	m := NewManager()

	first := m.Login("alice")
	second := m.Login("alice")
	assert.NotEqual(t, first.Token, second.Token)

	// Both sessions stay valid; logging in twice does not evict.
	_, ok := m.Get(first.Token)
	assert.True(t, ok)
	_, ok = m.Get(second.Token)
	assert.True(t, ok)
}

func TestLogout(t *testing.T) {
	m := NewManager()

	s := m.Login("alice")
	assert.True(t, m.Logout(s.Token))

	_, ok := m.Get(s.Token)
	assert.False(t, ok)

	// Logging out a dead or unknown token reports false.
	assert.False(t, m.Logout(s.Token))
	assert.False(t, m.Logout("never-issued"))
}

func TestGetUnknownToken(t *testing.T) {
	m := NewManager()

	_, ok := m.Get("nope")
	assert.False(t, ok)
}
