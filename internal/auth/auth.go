// Package auth provides user accounts with bcrypt-hashed passwords and an
// in-memory session token store.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionExpired     = errors.New("session expired")
	ErrSessionNotFound    = errors.New("session not found")
)

// User is a registered account.
type User struct {
	Name         string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Session is an issued bearer token.
type Session struct {
	Token     string
	UserName  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Manager holds users and sessions. All methods are safe for concurrent use.
type Manager struct {
	mu         sync.RWMutex
	users      map[string]*User
	sessions   map[string]*Session
	sessionTTL time.Duration
	bcryptCost int
}

// NewManager creates an empty manager. ttl bounds session lifetime; cost is
// the bcrypt work factor.
func NewManager(ttl time.Duration, cost int) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Manager{
		users:      make(map[string]*User),
		sessions:   make(map[string]*Session),
		sessionTTL: ttl,
		bcryptCost: cost,
	}
}

// Register creates a user with the given name and password.
func (m *Manager) Register(name, password string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("user name must not be empty")
	}
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[name]; ok {
		return ErrUserExists
	}
	m.users[name] = &User{
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	return nil
}

// Login verifies the password and issues a session token.
func (m *Manager) Login(name, password string) (*Session, error) {
	m.mu.RLock()
	u, ok := m.users[strings.TrimSpace(name)]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	s := &Session{
		Token:     uuid.NewString(),
		UserName:  u.Name,
		CreatedAt: now,
		ExpiresAt: now.Add(m.sessionTTL),
	}
	m.mu.Lock()
	m.sessions[s.Token] = s
	m.mu.Unlock()
	return s, nil
}

// Validate resolves a bearer token to its user name.
func (m *Manager) Validate(token string) (string, error) {
	m.mu.RLock()
	s, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return "", ErrSessionNotFound
	}
	if time.Now().After(s.ExpiresAt) {
		m.mu.Lock()
		delete(m.sessions, token)
		m.mu.Unlock()
		return "", ErrSessionExpired
	}
	return s.UserName, nil
}

// Logout revokes a session token. Unknown tokens are ignored.
func (m *Manager) Logout(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// SessionCount reports the number of live sessions, pruning expired ones.
func (m *Manager) SessionCount() int {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for tok, s := range m.sessions {
		if now.After(s.ExpiresAt) {
			delete(m.sessions, tok)
		}
	}
	return len(m.sessions)
}
