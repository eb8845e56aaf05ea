package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/zalando/go-keyring"
)

const (
	keyringPrefix = "session_"
	// keyringIndex holds the JSON list of users, since keyrings cannot enumerate
	keyringIndex = "index"
)

// KeyringStore implements SessionStore using the system keychain
type KeyringStore struct {
	mu sync.Mutex
}

// NewKeyringStore creates a keyring store after probing that the keyring works
func NewKeyringStore() (*KeyringStore, error) {
	testKey := "test_availability"
	if err := keyring.Set(AppName, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(AppName, testKey)

	return &KeyringStore{}, nil
}

// Store saves the session to the system keychain
func (k *KeyringStore) Store(session *Session) error {
	if session == nil || session.User == "" {
		return ErrInvalidSession
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if err := keyring.Set(AppName, keyringPrefix+session.User, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	return k.updateIndex(func(users map[string]bool) { users[session.User] = true })
}

// Retrieve gets the session from the system keychain
func (k *KeyringStore) Retrieve(user string) (*Session, error) {
	if user == "" {
		return nil, ErrInvalidSession
	}

	data, err := keyring.Get(AppName, keyringPrefix+user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var session Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

// List returns every session named in the index
func (k *KeyringStore) List() ([]*Session, error) {
	k.mu.Lock()
	users, err := k.readIndex()
	k.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var sessions []*Session
	for _, user := range users {
		session, err := k.Retrieve(user)
		if err != nil {
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// Delete removes the session from the system keychain
func (k *KeyringStore) Delete(user string) error {
	if user == "" {
		return ErrInvalidSession
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if err := keyring.Delete(AppName, keyringPrefix+user); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return k.updateIndex(func(users map[string]bool) { delete(users, user) })
}

// Exists checks if a session exists in the keychain
func (k *KeyringStore) Exists(user string) bool {
	if user == "" {
		return false
	}
	_, err := keyring.Get(AppName, keyringPrefix+user)
	return err == nil
}

func (k *KeyringStore) readIndex() ([]string, error) {
	data, err := keyring.Get(AppName, keyringIndex)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keyring index: %w", err)
	}

	var users []string
	if err := json.Unmarshal([]byte(data), &users); err != nil {
		return nil, fmt.Errorf("failed to parse keyring index: %w", err)
	}
	return users, nil
}

// updateIndex must be called with k.mu held
func (k *KeyringStore) updateIndex(change func(map[string]bool)) error {
	current, err := k.readIndex()
	if err != nil {
		return err
	}

	set := make(map[string]bool, len(current))
	for _, u := range current {
		set[u] = true
	}
	change(set)

	users := make([]string, 0, len(set))
	for u := range set {
		users = append(users, u)
	}
	sort.Strings(users)

	data, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("failed to marshal keyring index: %w", err)
	}
	if err := keyring.Set(AppName, keyringIndex, string(data)); err != nil {
		return fmt.Errorf("failed to write keyring index: %w", err)
	}
	return nil
}
