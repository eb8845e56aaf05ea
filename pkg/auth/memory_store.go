package auth

import (
	"sync"
)

// MemoryStore implements SessionStore in memory. It backs tests and
// runs where nothing should touch disk or the keyring.
type MemoryStore struct {
	sessions map[string]Session
	mu       sync.RWMutex

	// Error injection
	StoreError    error
	RetrieveError error
	ListError     error
	DeleteError   error
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
	}
}

// Store saves a copy of the session
func (m *MemoryStore) Store(session *Session) error {
	if m.StoreError != nil {
		return m.StoreError
	}
	if session == nil || session.User == "" {
		return ErrInvalidSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.User] = *session

	return nil
}

// Retrieve returns a copy of the stored session
func (m *MemoryStore) Retrieve(user string) (*Session, error) {
	if m.RetrieveError != nil {
		return nil, m.RetrieveError
	}
	if user == "" {
		return nil, ErrInvalidSession
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[user]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

// List returns copies of all sessions
func (m *MemoryStore) List() ([]*Session, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		s := session
		sessions = append(sessions, &s)
	}
	return sessions, nil
}

// Delete removes a session
func (m *MemoryStore) Delete(user string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	if user == "" {
		return ErrInvalidSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[user]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, user)
	return nil
}

// Exists checks if a session is stored for user
func (m *MemoryStore) Exists(user string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[user]
	return ok
}

// Count returns the number of stored sessions
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
