package auth

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "xdigest"
	keyringPrefix  = "profile_"
	keyringIndex   = "profiles"
)

// KeyringStore implements CredentialStore using the system keychain.
// The keychain cannot enumerate entries, so profile names are kept in a
// separate index entry.
type KeyringStore struct{}

// NewKeyringStore creates a keyring-based store after probing the keychain
func NewKeyringStore() (*KeyringStore, error) {
	probe := "probe_availability"
	if err := keyring.Set(keyringService, probe, "ok"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, probe)

	return &KeyringStore{}, nil
}

// Store saves credentials to the system keychain
func (k *KeyringStore) Store(creds *Credentials) error {
	if creds == nil || creds.Profile == "" {
		return ErrInvalidCredentials
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	if err := keyring.Set(keyringService, keyringPrefix+creds.Profile, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}

	profiles := k.profiles()
	for _, p := range profiles {
		if p == creds.Profile {
			return nil
		}
	}
	return k.saveProfiles(append(profiles, creds.Profile))
}

// Retrieve gets credentials from the system keychain
func (k *KeyringStore) Retrieve(profile string) (*Credentials, error) {
	if profile == "" {
		return nil, ErrInvalidCredentials
	}

	data, err := keyring.Get(keyringService, keyringPrefix+profile)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(data), &creds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	return &creds, nil
}

// List returns the indexed profiles still present in the keychain
func (k *KeyringStore) List() ([]*Credentials, error) {
	var out []*Credentials
	for _, p := range k.profiles() {
		creds, err := k.Retrieve(p)
		if err != nil {
			continue
		}
		out = append(out, creds)
	}
	return out, nil
}

// Delete removes credentials from the system keychain
func (k *KeyringStore) Delete(profile string) error {
	if profile == "" {
		return ErrInvalidCredentials
	}

	if err := keyring.Delete(keyringService, keyringPrefix+profile); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}

	var rest []string
	for _, p := range k.profiles() {
		if p != profile {
			rest = append(rest, p)
		}
	}
	return k.saveProfiles(rest)
}

// Exists checks if credentials exist in the keychain
func (k *KeyringStore) Exists(profile string) bool {
	if profile == "" {
		return false
	}
	_, err := keyring.Get(keyringService, keyringPrefix+profile)
	return err == nil
}

func (k *KeyringStore) profiles() []string {
	data, err := keyring.Get(keyringService, keyringIndex)
	if err != nil {
		return nil
	}
	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil
	}
	return names
}

func (k *KeyringStore) saveProfiles(names []string) error {
	if len(names) == 0 {
		err := keyring.Delete(keyringService, keyringIndex)
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("failed to update keyring index: %w", err)
		}
		return nil
	}
	data, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("failed to marshal keyring index: %w", err)
	}
	if err := keyring.Set(keyringService, keyringIndex, string(data)); err != nil {
		return fmt.Errorf("failed to update keyring index: %w", err)
	}
	return nil
}
