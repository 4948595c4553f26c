package auth

import (
	"os"
	"strings"
	"time"
)

const (
	envAPIKey    = "XDIGEST_API_KEY"
	envAuthToken = "XDIGEST_AUTH_TOKEN"
)

// EnvironmentStore reads credentials from XDIGEST_API_KEY and
// XDIGEST_AUTH_TOKEN. It is read-only and answers for any profile.
type EnvironmentStore struct {
	getenv func(string) string
}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{getenv: os.Getenv}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(*Credentials) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables
func (e *EnvironmentStore) Retrieve(profile string) (*Credentials, error) {
	key := strings.TrimSpace(e.getenv(envAPIKey))
	token := strings.TrimSpace(e.getenv(envAuthToken))
	if key == "" || token == "" {
		return nil, ErrCredentialsNotFound
	}

	if profile == "" {
		profile = DefaultProfile
	}

	return &Credentials{
		Profile:   profile,
		APIKey:    key,
		AuthToken: token,
		// zero: environment values are never newer than a saved profile
		LastModified: time.Time{},
	}, nil
}

// List returns a single entry when both variables are set
func (e *EnvironmentStore) List() ([]*Credentials, error) {
	creds, err := e.Retrieve("env")
	if err != nil {
		return []*Credentials{}, nil
	}
	return []*Credentials{creds}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(string) error {
	return ErrStoreUnavailable
}

// Exists reports false so Manager.Delete never targets the environment
func (e *EnvironmentStore) Exists(string) bool {
	return false
}
