package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestManager() *Manager {
	// MinCost keeps the hashing fast in tests.
	return NewManager(time.Hour, bcrypt.MinCost)
}

func TestRegisterAndLogin(t *testing.T) {
	m := newTestManager()
	require.NoError(t, m.Register("alice", "secret-pass"))

	s, err := m.Login("alice", "secret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, s.Token)
	assert.Equal(t, "alice", s.UserName)
	assert.True(t, s.ExpiresAt.After(s.CreatedAt))

	user, err := m.Validate(s.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", user)
}

func TestRegisterValidation(t *testing.T) {
	m := newTestManager()
	assert.Error(t, m.Register("", "secret-pass"))
	assert.Error(t, m.Register("   ", "secret-pass"))
	assert.Error(t, m.Register("alice", "short"))

	require.NoError(t, m.Register("alice", "secret-pass"))
	assert.ErrorIs(t, m.Register("alice", "other-pass"), ErrUserExists)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	m := newTestManager()
	require.NoError(t, m.Register("alice", "secret-pass"))

	_, err := m.Login("alice", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = m.Login("nobody", "secret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateUnknownToken(t *testing.T) {
	m := newTestManager()
	_, err := m.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionExpiry(t *testing.T) {
	m := NewManager(time.Hour, bcrypt.MinCost)
	require.NoError(t, m.Register("alice", "secret-pass"))
	s, err := m.Login("alice", "secret-pass")
	require.NoError(t, err)

	// Force the session into the past.
	m.mu.Lock()
	m.sessions[s.Token].ExpiresAt = time.Now().Add(-time.Minute)
	m.mu.Unlock()

	_, err = m.Validate(s.Token)
	assert.ErrorIs(t, err, ErrSessionExpired)
	// Expired sessions are dropped on first sight.
	_, err = m.Validate(s.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestLogoutRevokesToken(t *testing.T) {
	m := newTestManager()
	require.NoError(t, m.Register("alice", "secret-pass"))
	s, err := m.Login("alice", "secret-pass")
	require.NoError(t, err)

	m.Logout(s.Token)
	_, err = m.Validate(s.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Logging out twice is harmless.
	m.Logout(s.Token)
}

func TestSessionCountPrunesExpired(t *testing.T) {
	m := newTestManager()
	require.NoError(t, m.Register("alice", "secret-pass"))
	live, err := m.Login("alice", "secret-pass")
	require.NoError(t, err)
	stale, err := m.Login("alice", "secret-pass")
	require.NoError(t, err)

	m.mu.Lock()
	m.sessions[stale.Token].ExpiresAt = time.Now().Add(-time.Minute)
	m.mu.Unlock()

	assert.Equal(t, 1, m.SessionCount())
	user, err := m.Validate(live.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", user)
}
