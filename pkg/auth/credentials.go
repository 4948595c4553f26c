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

var (
	// ErrCredentialsNotFound is returned when no credentials are stored for a profile
	ErrCredentialsNotFound = errors.New("credentials not found")
	// ErrInvalidCredentials is returned for incomplete credentials or an empty profile
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrStoreUnavailable is returned when a store cannot perform the operation
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

// DefaultProfile names the credentials used when no profile is given
const DefaultProfile = "default"

// Credentials are the proxy API key and account auth token saved under a profile
type Credentials struct {
	Profile      string    `json:"profile"`
	APIKey       string    `json:"api_key"`
	AuthToken    string    `json:"auth_token"`
	LastModified time.Time `json:"last_modified"`
}

// Valid reports whether both secrets are present
func (c *Credentials) Valid() bool {
	return c != nil && strings.TrimSpace(c.APIKey) != "" && strings.TrimSpace(c.AuthToken) != ""
}

// CredentialStore persists credentials by profile name
type CredentialStore interface {
	Store(creds *Credentials) error
	Retrieve(profile string) (*Credentials, error)
	List() ([]*Credentials, error)
	Delete(profile string) error
	Exists(profile string) bool
}

// Manager tries its stores in order: the first store to hold a profile wins
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a manager over the system keychain, an encrypted
// file in the config directory and the environment, in that order.
// Stores that cannot be opened are skipped.
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	if ks, err := NewKeyringStore(); err == nil {
		stores = append(stores, ks)
	}

	if dir, err := getConfigDir(); err == nil {
		if fs, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc")); err == nil {
			stores = append(stores, fs)
		}
	}

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over the given stores
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves credentials in the first store that accepts them
func (m *Manager) Store(creds *Credentials) error {
	if creds == nil || !creds.Valid() {
		return ErrInvalidCredentials
	}
	if creds.Profile == "" {
		creds.Profile = DefaultProfile
	}
	creds.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(creds)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = ErrStoreUnavailable
	}
	return fmt.Errorf("failed to store credentials: %w", lastErr)
}

// Retrieve returns the credentials saved under profile
func (m *Manager) Retrieve(profile string) (*Credentials, error) {
	if profile == "" {
		profile = DefaultProfile
	}

	for _, store := range m.stores {
		creds, err := store.Retrieve(profile)
		if err == nil && creds != nil {
			return creds, nil
		}
	}

	return nil, ErrCredentialsNotFound
}

// RetrieveDefault returns the default profile, or the most recently
// modified profile when no default is stored
func (m *Manager) RetrieveDefault() (*Credentials, error) {
	if creds, err := m.Retrieve(DefaultProfile); err == nil {
		return creds, nil
	}

	all, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, ErrCredentialsNotFound
	}
	return all[0], nil
}

// List returns the profiles across all stores, newest first. A profile
// held by several stores is reported once, from the earliest store.
func (m *Manager) List() ([]*Credentials, error) {
	seen := make(map[string]bool)
	var all []*Credentials

	for _, store := range m.stores {
		list, err := store.List()
		if err != nil {
			continue
		}
		for _, creds := range list {
			if seen[creds.Profile] {
				continue
			}
			seen[creds.Profile] = true
			all = append(all, creds)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].LastModified.After(all[j].LastModified)
	})
	return all, nil
}

// Delete removes profile from every store that holds it
func (m *Manager) Delete(profile string) error {
	if profile == "" {
		return ErrInvalidCredentials
	}

	deleted := false
	for _, store := range m.stores {
		if !store.Exists(profile) {
			continue
		}
		if err := store.Delete(profile); err == nil {
			deleted = true
		}
	}

	if !deleted {
		return ErrCredentialsNotFound
	}
	return nil
}

// getConfigDir returns the per-user xdigest config directory, creating it
func getConfigDir() (string, error) {
	var dir string

	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", errors.New("APPDATA not set")
		}
		dir = filepath.Join(appData, "xdigest")
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			dir = filepath.Join(xdg, "xdigest")
		} else {
			dir = filepath.Join(home, ".config", "xdigest")
		}
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// Sanitize returns a copy of creds with both secrets masked for display
func Sanitize(creds *Credentials) *Credentials {
	if creds == nil {
		return nil
	}
	out := *creds
	out.APIKey = Mask(creds.APIKey)
	out.AuthToken = Mask(creds.AuthToken)
	return &out
}

// Mask keeps the first and last four characters of s
func Mask(s string) string {
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}
