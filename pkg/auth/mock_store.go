package auth

import (
	"sort"
	"sync"
)

// MockStore is an in-memory CredentialStore with error injection
type MockStore struct {
	profiles map[string]*Credentials
	mu       sync.RWMutex

	StoreError    error
	RetrieveError error
	ListError     error
	DeleteError   error
}

// NewMockStore creates an empty mock store
func NewMockStore() *MockStore {
	return &MockStore{profiles: make(map[string]*Credentials)}
}

func (m *MockStore) Store(creds *Credentials) error {
	if m.StoreError != nil {
		return m.StoreError
	}
	if creds == nil || creds.Profile == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := *creds
	m.profiles[creds.Profile] = &c
	return nil
}

func (m *MockStore) Retrieve(profile string) (*Credentials, error) {
	if m.RetrieveError != nil {
		return nil, m.RetrieveError
	}
	if profile == "" {
		return nil, ErrInvalidCredentials
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	creds, ok := m.profiles[profile]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	c := *creds
	return &c, nil
}

func (m *MockStore) List() ([]*Credentials, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Credentials, 0, len(m.profiles))
	for _, creds := range m.profiles {
		c := *creds
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Profile < out[j].Profile })
	return out, nil
}

func (m *MockStore) Delete(profile string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	if profile == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[profile]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.profiles, profile)
	return nil
}

func (m *MockStore) Exists(profile string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.profiles[profile]
	return ok
}

// Count returns the number of stored profiles
func (m *MockStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.profiles)
}

// NewMockManager creates a Manager backed by a single mock store
func NewMockManager() (*Manager, *MockStore) {
	store := NewMockStore()
	return NewManagerWithStores(store), store
}
