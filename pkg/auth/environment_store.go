package auth

import (
	"os"
	"time"
)

const (
	// EnvSession holds a session token for any user
	EnvSession = "SMUGMIRROR_SESSION"
	// EnvSessionUser optionally restricts EnvSession to one user
	EnvSessionUser = "SMUGMIRROR_SESSION_USER"
)

// EnvironmentStore implements SessionStore over environment variables.
// It is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based session store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(*Session) error {
	return ErrStoreUnavailable
}

// Retrieve returns SMUGMIRROR_SESSION for user, honouring SMUGMIRROR_SESSION_USER
func (e *EnvironmentStore) Retrieve(user string) (*Session, error) {
	token := os.Getenv(EnvSession)
	if token == "" {
		return nil, ErrSessionNotFound
	}

	owner := os.Getenv(EnvSessionUser)
	if owner != "" && user != "" && owner != user {
		return nil, ErrSessionNotFound
	}
	if user == "" {
		user = owner
	}
	if user == "" {
		user = "default"
	}

	return &Session{
		User:      user,
		Token:     token,
		UpdatedAt: time.Time{},
	}, nil
}

// List returns a single session if the environment carries one
func (e *EnvironmentStore) List() ([]*Session, error) {
	session, err := e.Retrieve("")
	if err != nil {
		return []*Session{}, nil
	}
	return []*Session{session}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(string) error {
	return ErrStoreUnavailable
}

// Exists checks if the environment holds a session usable for user
func (e *EnvironmentStore) Exists(user string) bool {
	_, err := e.Retrieve(user)
	return err == nil
}
