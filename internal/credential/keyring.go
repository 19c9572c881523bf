package credential

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "mailshot"

// ErrNotFound is returned when no credential is stored under a key.
var ErrNotFound = errors.New("credential not found")

// Store reads and writes provider API keys in the system keyring. The
// keyring is opened on every call so secrets are never held in memory
// between invocations.
type Store struct {
	open func() (keyring.Keyring, error)
}

// NewStore returns a Store backed by the OS keyring, falling back to an
// encrypted file under dir when no native backend is available.
func NewStore(dir string) *Store {
	return &Store{
		open: func() (keyring.Keyring, error) {
			return openKeyring(dir)
		},
	}
}

// NewStoreWithKeyring returns a Store that always uses ring. Intended for
// tests and embedding.
func NewStoreWithKeyring(ring keyring.Keyring) *Store {
	return &Store{
		open: func() (keyring.Keyring, error) {
			return ring, nil
		},
	}
}

// openKeyring returns a configured keyring instance.
func openKeyring(dir string) (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(dir, "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt("mailshot-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// APIKeyName returns the keyring key holding the API key for provider.
func APIKeyName(provider string) string {
	return "api-key/" + strings.ToLower(provider)
}

// IMAPPasswordName returns the keyring key holding the IMAP password for
// username.
func IMAPPasswordName(username string) string {
	return "imap/" + strings.ToLower(username)
}

// Get retrieves a credential value by key. It returns ErrNotFound (wrapped)
// when the key is absent or empty.
func (s *Store) Get(key string) (string, error) {
	ring, err := s.open()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", fmt.Errorf("getting credential %q: %w", key, ErrNotFound)
		}
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	if strings.TrimSpace(string(item.Data)) == "" {
		return "", fmt.Errorf("getting credential %q: %w", key, ErrNotFound)
	}

	return string(item.Data), nil
}

// APIKey retrieves the API key for provider.
func (s *Store) APIKey(provider string) (string, error) {
	return s.Get(APIKeyName(provider))
}

// Set stores a credential value by key.
func (s *Store) Set(key string, value string) error {
	ring, err := s.open()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: serviceName + " " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key.
func (s *Store) Delete(key string) error {
	ring, err := s.open()
	if err != nil {
		return err
	}

	if err := ring.Remove(key); err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}
