// ABOUTME: Client secret storage backed by the OS keychain
// ABOUTME: Secrets are keyed by Azure AD client id and never written to disk by the CLI
package credentials

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// DefaultService is the keychain service name secrets are stored under
const DefaultService = "msstore-cli"

// ErrEmptyKey is returned when a credential is addressed without a key
var ErrEmptyKey = errors.New("credentials: key must not be empty")

// Store persists client secrets
type Store interface {
	// ReadCredential returns the secret for key, or "" when none is stored
	ReadCredential(key string) (string, error)
	WriteCredential(key, secret string) error
	ClearCredentials(key string) error
}

// KeyringStore keeps secrets in the platform keychain (macOS Keychain,
// Windows Credential Manager, Secret Service on Linux)
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a store using the given keychain service name
func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = DefaultService
	}
	return &KeyringStore{service: service}
}

// ReadCredential implements Store.ReadCredential
func (s *KeyringStore) ReadCredential(key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}

	secret, err := keyring.Get(s.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read credential from keychain: %w", err)
	}
	return secret, nil
}

// WriteCredential implements Store.WriteCredential
func (s *KeyringStore) WriteCredential(key, secret string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := keyring.Set(s.service, key, secret); err != nil {
		return fmt.Errorf("failed to store credential in keychain: %w", err)
	}
	return nil
}

// ClearCredentials implements Store.ClearCredentials. Clearing a key that
// holds nothing is not an error.
func (s *KeyringStore) ClearCredentials(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	err := keyring.Delete(s.service, key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to clear credential from keychain: %w", err)
	}
	return nil
}
