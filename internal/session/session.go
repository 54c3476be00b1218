// Package session holds the operator's bearer token and username. The HTTP
// client reads it through Source at request time; nothing looks it up from
// ambient global state.
package session

import (
	"errors"
	"sync"
)

// Well-known keys of the persisted client state.
const (
	KeyToken    = "authToken"
	KeyUsername = "username"
)

// ErrNoSession is returned when an operation needs a logged-in operator.
var ErrNoSession = errors.New("no active session")

// Session is the authenticated operator's credentials.
type Session struct {
	Token    string
	Username string
}

// Authenticated reports whether the session carries a token.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// AuthorizationHeader returns the bearer header value, or "" when anonymous.
func (s Session) AuthorizationHeader() string {
	if s.Token == "" {
		return ""
	}
	return "Bearer " + s.Token
}

// Source provides the current session.
type Source interface {
	Current() Session
}

// Store is a Source that can be changed and persisted.
type Store interface {
	Source

	// Save replaces the current session.
	Save(s Session) error

	// Clear removes the current session.
	Clear() error
}

// Static is a fixed Source, handy for tests and one-shot tools.
type Static Session

// Current returns the static session.
func (s Static) Current() Session {
	return Session(s)
}

// MemoryStore keeps the session in process memory only.
type MemoryStore struct {
	mu      sync.RWMutex
	current Session
}

// NewMemoryStore creates a memory store seeded with initial.
func NewMemoryStore(initial Session) *MemoryStore {
	return &MemoryStore{current: initial}
}

// Current returns the stored session.
func (m *MemoryStore) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Save replaces the stored session.
func (m *MemoryStore) Save(s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = s
	return nil
}

// Clear removes the stored session.
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = Session{}
	return nil
}
