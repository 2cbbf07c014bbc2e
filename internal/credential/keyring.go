package credential

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/99designs/keyring"
)

const serviceName = "facultyflow"

// TokenKey is the keyring entry holding the API bearer token.
const TokenKey = "api-token"

// ErrNotFound is returned when no credential is stored under a key.
var ErrNotFound = errors.New("credential not found")

// Store persists secrets by key.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// KeyringStore keeps credentials in the system keyring, falling back to
// an encrypted file under dir when no native backend is available.
type KeyringStore struct {
	dir  string
	once sync.Once
	ring keyring.Keyring
	err  error
}

// NewKeyringStore returns a keyring-backed store. The keyring is opened
// lazily on first use.
func NewKeyringStore(dir string) *KeyringStore {
	return &KeyringStore{dir: dir}
}

// open returns the configured keyring instance.
func (s *KeyringStore) open() (keyring.Keyring, error) {
	s.once.Do(func() {
		ring, err := keyring.Open(keyring.Config{
			ServiceName: serviceName,
			AllowedBackends: []keyring.BackendType{
				keyring.KeychainBackend,
				keyring.SecretServiceBackend,
				keyring.WinCredBackend,
				keyring.PassBackend,
				keyring.FileBackend,
			},
			FileDir:                  filepath.Join(s.dir, "credentials"),
			FilePasswordFunc:         keyring.FixedStringPrompt("facultyflow-file-key"),
			KeychainTrustApplication: true,
		})
		if err != nil {
			s.err = fmt.Errorf("opening keyring: %w", err)
			return
		}
		s.ring = ring
	})
	return s.ring, s.err
}

// Get retrieves a credential value by key from the system keyring.
func (s *KeyringStore) Get(key string) (string, error) {
	ring, err := s.open()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func (s *KeyringStore) Set(key string, value string) error {
	ring, err := s.open()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: "FacultyFlow API token",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key. Deleting a missing key is not an
// error.
func (s *KeyringStore) Delete(key string) error {
	ring, err := s.open()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}
