package auth

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCredentials(profile string) *Credentials {
	return &Credentials{
		Profile:   profile,
		APIKey:    "key_0123456789abcdef",
		AuthToken: "token_fedcba9876543210",
	}
}

func TestCredentialManager(t *testing.T) {
	manager, store := NewMockManager()

	require.NoError(t, manager.Store(sampleCredentials("work")))
	assert.Equal(t, 1, store.Count())

	got, err := manager.Retrieve("work")
	require.NoError(t, err)
	assert.Equal(t, "key_0123456789abcdef", got.APIKey)
	assert.Equal(t, "token_fedcba9876543210", got.AuthToken)
	assert.False(t, got.LastModified.IsZero(), "Store stamps LastModified")

	list, err := manager.List()
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, manager.Delete("work"))
	_, err = manager.Retrieve("work")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.Equal(t, 0, store.Count())
}

func TestManagerStoreDefaultsProfile(t *testing.T) {
	manager, store := NewMockManager()

	creds := sampleCredentials("")
	require.NoError(t, manager.Store(creds))
	assert.True(t, store.Exists(DefaultProfile))

	got, err := manager.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile, got.Profile)
}

func TestManagerStoreRejectsIncompleteCredentials(t *testing.T) {
	manager, _ := NewMockManager()

	assert.ErrorIs(t, manager.Store(nil), ErrInvalidCredentials)
	assert.ErrorIs(t, manager.Store(&Credentials{Profile: "x", APIKey: "k"}), ErrInvalidCredentials)
	assert.ErrorIs(t, manager.Store(&Credentials{Profile: "x", APIKey: " ", AuthToken: "t"}), ErrInvalidCredentials)
}

func TestManagerFallsThroughStores(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = stderrors.New("keychain locked")
	fallback := NewMockStore()
	manager := NewManagerWithStores(broken, fallback)

	require.NoError(t, manager.Store(sampleCredentials("home")))
	assert.Equal(t, 0, broken.Count())
	assert.Equal(t, 1, fallback.Count())

	got, err := manager.Retrieve("home")
	require.NoError(t, err)
	assert.Equal(t, "home", got.Profile)
}

func TestManagerStoreReportsLastError(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = stderrors.New("disk full")
	manager := NewManagerWithStores(broken)

	err := manager.Store(sampleCredentials("a"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	err = NewManagerWithStores().Store(sampleCredentials("a"))
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestManagerListDeduplicatesAndSorts(t *testing.T) {
	first := NewMockStore()
	second := NewMockStore()
	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	require.NoError(t, first.Store(&Credentials{Profile: "a", APIKey: "k1", AuthToken: "t1", LastModified: older}))
	require.NoError(t, second.Store(&Credentials{Profile: "a", APIKey: "k2", AuthToken: "t2", LastModified: newer}))
	require.NoError(t, second.Store(&Credentials{Profile: "b", APIKey: "k3", AuthToken: "t3", LastModified: newer}))

	list, err := NewManagerWithStores(first, second).List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].Profile)
	assert.Equal(t, "a", list[1].Profile)
	assert.Equal(t, "k1", list[1].APIKey, "the earliest store wins")
}

func TestManagerRetrieveDefault(t *testing.T) {
	manager, store := NewMockManager()

	_, err := manager.RetrieveDefault()
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	require.NoError(t, store.Store(&Credentials{Profile: "old", APIKey: "k", AuthToken: "t", LastModified: time.Unix(10, 0)}))
	require.NoError(t, store.Store(&Credentials{Profile: "new", APIKey: "k", AuthToken: "t", LastModified: time.Unix(20, 0)}))

	got, err := manager.RetrieveDefault()
	require.NoError(t, err)
	assert.Equal(t, "new", got.Profile)

	require.NoError(t, store.Store(&Credentials{Profile: DefaultProfile, APIKey: "k", AuthToken: "t", LastModified: time.Unix(1, 0)}))
	got, err = manager.RetrieveDefault()
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile, got.Profile)
}

func TestManagerDelete(t *testing.T) {
	manager, _ := NewMockManager()

	assert.ErrorIs(t, manager.Delete(""), ErrInvalidCredentials)
	assert.ErrorIs(t, manager.Delete("missing"), ErrCredentialsNotFound)
}

func TestEncryptedFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")
	store := NewEncryptedFileStoreWithPassphrase(path, "correct horse")

	_, err := store.Retrieve("a")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	require.NoError(t, store.Store(sampleCredentials("a")))
	require.NoError(t, store.Store(sampleCredentials("b")))
	assert.True(t, store.Exists("a"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "key_0123456789abcdef", "secrets are not stored in the clear")

	// a second store over the same file decrypts with the same passphrase
	reopened := NewEncryptedFileStoreWithPassphrase(path, "correct horse")
	got, err := reopened.Retrieve("b")
	require.NoError(t, err)
	assert.Equal(t, "token_fedcba9876543210", got.AuthToken)

	list, err := reopened.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Profile)

	wrong := NewEncryptedFileStoreWithPassphrase(path, "wrong")
	_, err = wrong.Retrieve("a")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCredentialsNotFound)

	require.NoError(t, store.Delete("a"))
	assert.ErrorIs(t, store.Delete("a"), ErrCredentialsNotFound)
	require.NoError(t, store.Delete("b"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "file is removed with the last profile")
}

func TestEncryptedFileStoreGeneratesPassphrase(t *testing.T) {
	t.Setenv(envPassphrase, "")
	dir := t.TempDir()

	store, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	require.NoError(t, err)
	require.NoError(t, store.Store(sampleCredentials("a")))

	pass, err := os.ReadFile(filepath.Join(dir, ".passphrase"))
	require.NoError(t, err)
	assert.Equal(t, string(pass), store.passphrase)

	again, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	require.NoError(t, err)
	assert.True(t, again.Exists("a"))
}

func TestEnvironmentStore(t *testing.T) {
	env := map[string]string{}
	store := &EnvironmentStore{getenv: func(k string) string { return env[k] }}

	_, err := store.Retrieve("")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	list, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, list)

	env[envAPIKey] = " key "
	env[envAuthToken] = "token\n"

	got, err := store.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile, got.Profile)
	assert.Equal(t, "key", got.APIKey)
	assert.Equal(t, "token", got.AuthToken)

	assert.ErrorIs(t, store.Store(got), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("default"), ErrStoreUnavailable)
	assert.False(t, store.Exists("default"))
}

func TestMask(t *testing.T) {
	assert.Equal(t, "", Mask(""))
	assert.Equal(t, "****", Mask("abcd"))
	assert.Equal(t, "********", Mask("abcdefgh"))
	assert.Equal(t, "abcd*efgh", Mask("abcdXefgh"))

	creds := sampleCredentials("p")
	masked := Sanitize(creds)
	assert.Equal(t, "p", masked.Profile)
	assert.True(t, strings.HasPrefix(masked.APIKey, "key_"))
	assert.NotEqual(t, creds.APIKey, masked.APIKey)
	assert.NotEqual(t, creds.AuthToken, masked.AuthToken)
	assert.Equal(t, "key_0123456789abcdef", creds.APIKey, "the input is not modified")
	assert.Nil(t, Sanitize(nil))
}
