package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 32
	keySize    = 32
	iterations = 100000

	// EnvPassphrase overrides the generated passphrase file
	EnvPassphrase = "SMUGMIRROR_PASSPHRASE"
)

// EncryptedFileStore implements SessionStore using an AES-GCM encrypted file
type EncryptedFileStore struct {
	path       string
	passphrase string
	mu         sync.RWMutex
}

// fileFormat is the on-disk envelope; Encrypted holds the sealed session map
type fileFormat struct {
	Salt      string    `json:"salt"`
	Encrypted string    `json:"encrypted"`
	Version   int       `json:"version"`
	Modified  time.Time `json:"modified"`
}

type sessionFile struct {
	salt     []byte
	sessions map[string]Session
}

// NewEncryptedFileStore creates an encrypted store at path. An empty
// passphrase falls back to SMUGMIRROR_PASSPHRASE, then to a generated
// passphrase kept next to the store.
func NewEncryptedFileStore(path, passphrase string) (*EncryptedFileStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if passphrase == "" {
		var err error
		passphrase, err = loadPassphrase(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to get passphrase: %w", err)
		}
	}

	return &EncryptedFileStore{path: path, passphrase: passphrase}, nil
}

// Store saves the session to the encrypted file
func (e *EncryptedFileStore) Store(session *Session) error {
	if session == nil || session.User == "" {
		return ErrInvalidSession
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	data, err := e.load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load existing data: %w", err)
	}
	if data == nil {
		data = &sessionFile{sessions: make(map[string]Session)}
	}

	data.sessions[session.User] = *session
	return e.save(data)
}

// Retrieve gets the session from the encrypted file
func (e *EncryptedFileStore) Retrieve(user string) (*Session, error) {
	if user == "" {
		return nil, ErrInvalidSession
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	data, err := e.load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	session, ok := data.sessions[user]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

// List returns all stored sessions
func (e *EncryptedFileStore) List() ([]*Session, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	data, err := e.load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*Session{}, nil
		}
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	sessions := make([]*Session, 0, len(data.sessions))
	for _, session := range data.sessions {
		s := session
		sessions = append(sessions, &s)
	}
	return sessions, nil
}

// Delete removes the session; the file goes away with the last one
func (e *EncryptedFileStore) Delete(user string) error {
	if user == "" {
		return ErrInvalidSession
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	data, err := e.load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to load data: %w", err)
	}

	if _, ok := data.sessions[user]; !ok {
		return ErrSessionNotFound
	}
	delete(data.sessions, user)

	if len(data.sessions) == 0 {
		return os.Remove(e.path)
	}
	return e.save(data)
}

// Exists checks if a session is stored for user
func (e *EncryptedFileStore) Exists(user string) bool {
	session, err := e.Retrieve(user)
	return err == nil && session != nil
}

func (e *EncryptedFileStore) load() (*sessionFile, error) {
	content, err := os.ReadFile(e.path)
	if err != nil {
		return nil, err
	}

	var raw fileFormat
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(raw.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	sealed, err := base64.StdEncoding.DecodeString(raw.Encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encrypted data: %w", err)
	}

	plain, err := decrypt(sealed, e.key(salt))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt data: %w", err)
	}

	var sessions map[string]Session
	if err := json.Unmarshal(plain, &sessions); err != nil {
		return nil, fmt.Errorf("failed to parse sessions: %w", err)
	}
	if sessions == nil {
		sessions = make(map[string]Session)
	}

	return &sessionFile{salt: salt, sessions: sessions}, nil
}

func (e *EncryptedFileStore) save(data *sessionFile) error {
	if len(data.salt) == 0 {
		data.salt = make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, data.salt); err != nil {
			return fmt.Errorf("failed to generate salt: %w", err)
		}
	}

	plain, err := json.Marshal(data.sessions)
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}

	sealed, err := encrypt(plain, e.key(data.salt))
	if err != nil {
		return fmt.Errorf("failed to encrypt data: %w", err)
	}

	content, err := json.MarshalIndent(fileFormat{
		Salt:      base64.StdEncoding.EncodeToString(data.salt),
		Encrypted: base64.StdEncoding.EncodeToString(sealed),
		Version:   1,
		Modified:  time.Now(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal file data: %w", err)
	}

	tempFile := e.path + ".tmp"
	if err := os.WriteFile(tempFile, content, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return os.Rename(tempFile, e.path)
}

func (e *EncryptedFileStore) key(salt []byte) []byte {
	return pbkdf2.Key([]byte(e.passphrase), salt, iterations, keySize, sha256.New)
}

// loadPassphrase reads or creates the passphrase file in dir
func loadPassphrase(dir string) (string, error) {
	if pass := os.Getenv(EnvPassphrase); pass != "" {
		return pass, nil
	}

	passphraseFile := filepath.Join(dir, ".passphrase")
	if content, err := os.ReadFile(passphraseFile); err == nil && len(content) > 0 {
		return string(content), nil
	}

	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	passphrase := base64.URLEncoding.EncodeToString(b)

	if err := os.WriteFile(passphraseFile, []byte(passphrase), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	return passphrase, nil
}

func encrypt(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decrypt(ciphertext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
