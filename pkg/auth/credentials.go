package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

// AppName names the per-user config directory and keyring service
const AppName = "smugmirror"

// Session is a stored SMSESS cookie value for one gallery user
type Session struct {
	User      string    `json:"user"`
	Token     string    `json:"token"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionStore is the interface for storing and retrieving session tokens
type SessionStore interface {
	// Store saves the session for session.User
	Store(session *Session) error

	// Retrieve gets the session for a user
	Retrieve(user string) (*Session, error)

	// List returns all stored sessions
	List() ([]*Session, error)

	// Delete removes the session for a user
	Delete(user string) error

	// Exists checks if a session exists for a user
	Exists(user string) bool
}

// Manager handles session storage with fallback mechanisms
type Manager struct {
	stores []SessionStore
}

// NewManager creates a manager backed by the system keyring when available,
// an encrypted file in the config directory, and SMUGMIRROR_SESSION.
func NewManager() (*Manager, error) {
	var stores []SessionStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "sessions.enc"), "")
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over explicit stores, tried in order
func NewManagerWithStores(stores ...SessionStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves the session using the first store that accepts it
func (m *Manager) Store(session *Session) error {
	if session == nil || strings.TrimSpace(session.User) == "" {
		return errors.New("user is required")
	}
	if strings.TrimSpace(session.Token) == "" {
		return errors.New("session token is required")
	}

	session.UpdatedAt = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(session)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store session: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets the session from the first store that has it
func (m *Manager) Retrieve(user string) (*Session, error) {
	for _, store := range m.stores {
		if session, err := store.Retrieve(user); err == nil && session != nil {
			return session, nil
		}
	}
	return nil, fmt.Errorf("%w for user: %s", ErrSessionNotFound, user)
}

// Token returns the stored token for user, or "" when none is stored.
// An anonymous run is valid, so a missing session is not an error.
func (m *Manager) Token(user string) string {
	session, err := m.Retrieve(user)
	if err != nil {
		return ""
	}
	return session.Token
}

// List returns all stored sessions, newest version per user, sorted by user
func (m *Manager) List() ([]*Session, error) {
	byUser := make(map[string]*Session)

	for _, store := range m.stores {
		sessions, err := store.List()
		if err != nil {
			continue
		}
		for _, session := range sessions {
			if existing, ok := byUser[session.User]; !ok || session.UpdatedAt.After(existing.UpdatedAt) {
				byUser[session.User] = session
			}
		}
	}

	result := make([]*Session, 0, len(byUser))
	for _, session := range byUser {
		result = append(result, session)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].User < result[j].User })

	return result, nil
}

// Delete removes the session from all stores
func (m *Manager) Delete(user string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		err := store.Delete(user)
		switch {
		case err == nil:
			deleted = true
		case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrStoreUnavailable):
		default:
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete session: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w for user: %s", ErrSessionNotFound, user)
	}

	return nil
}

// ConfigDir returns the per-user configuration directory, creating it
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", AppName)
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), AppName)
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, AppName)
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", AppName)
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// Masked returns a copy of the session with the token masked
func (s *Session) Masked() *Session {
	if s == nil {
		return nil
	}
	return &Session{
		User:      s.User,
		Token:     MaskToken(s.Token),
		UpdatedAt: s.UpdatedAt,
	}
}

// MaskToken masks all but the first 4 and last 4 characters of a token
func MaskToken(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidSession   = errors.New("invalid session")
	ErrStoreUnavailable = errors.New("session store unavailable")
)
