package conversation

import (
	"errors"
	"sync"

	"cvarchitect/internal/cv"
	"cvarchitect/internal/transport"
)

// ErrSessionNotFound is returned for unknown session IDs.
var ErrSessionNotFound = errors.New("conversation: session not found")

// Manager is the registry of live sessions, keyed by session ID.
type Manager struct {
	opener transport.Opener

	mu       sync.RWMutex
	sessions map[string]*Session

	onChange func(*Session)
}

// NewManager creates a registry building sessions on opener. onChange,
// when non-nil, is invoked with the owning session after every document
// change; autosave hangs off it.
func NewManager(opener transport.Opener, onChange func(*Session)) *Manager {
	return &Manager{
		opener:   opener,
		sessions: make(map[string]*Session),
		onChange: onChange,
	}
}

// Create registers a new session and returns it.
func (m *Manager) Create(opts ...Option) *Session {
	var s *Session
	if m.onChange != nil {
		opts = append(opts, WithOnChange(func(_ cv.Document) { m.onChange(s) }))
	}
	s = NewSession(m.opener, opts...)
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s
}

// Get looks up a live session.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	return s, ok
}

// Reset resets the session's conversation and re-keys it under its new
// ID. Returns the reset session.
func (m *Manager) Reset(id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	delete(m.sessions, id)
	m.mu.Unlock()

	s.Reset()

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s, nil
}

// Remove drops a session from the registry, cancelling any in-flight
// stream.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Cancel()
	}
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
