package main

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdigest/pkg/auth"
	"xdigest/pkg/config"
	"xdigest/pkg/errors"
	"xdigest/pkg/ui"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitNoData, exitCode(errors.ErrNoData))
	assert.Equal(t, exitNoData, exitCode(fmt.Errorf("publish: %w", errors.ErrNoData)))
	assert.Equal(t, exitFailure, exitCode(errors.New(errors.ErrorTypeConfig, "missing credentials")))
	assert.Equal(t, exitFailure, exitCode(stderrors.Join(stderrors.New("text: disk full"), nil)))
}

func quietUI(t *testing.T) {
	ui.SetQuiet(true)
	t.Cleanup(func() { ui.SetQuiet(false) })
}

func TestResolveCredentialsPrefersConfiguration(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.API.APIKey = "k"
	cfg.API.AuthToken = "t"
	manager, store := auth.NewMockManager()
	require.NoError(t, store.Store(&auth.Credentials{Profile: "default", APIKey: "other", AuthToken: "other"}))

	source, err := resolveCredentials(cfg, manager, nil)
	require.NoError(t, err)
	assert.Equal(t, "configuration", source)
	assert.Equal(t, "k", cfg.API.APIKey)
}

func TestResolveCredentialsFromProfile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Auth.Profile = "work"
	manager, store := auth.NewMockManager()
	require.NoError(t, store.Store(&auth.Credentials{Profile: "work", APIKey: "wk", AuthToken: "wt"}))

	source, err := resolveCredentials(cfg, manager, nil)
	require.NoError(t, err)
	assert.Equal(t, "profile work", source)
	assert.Equal(t, "wk", cfg.API.APIKey)
	assert.Equal(t, "wt", cfg.API.AuthToken)
}

func TestResolveCredentialsDefaultFallsBackToNewest(t *testing.T) {
	cfg := config.DefaultConfig()
	manager, store := auth.NewMockManager()
	require.NoError(t, store.Store(&auth.Credentials{Profile: "home", APIKey: "hk", AuthToken: "ht"}))

	source, err := resolveCredentials(cfg, manager, nil)
	require.NoError(t, err)
	assert.Equal(t, "profile home", source)
}

func TestResolveCredentialsMissingWithoutTerminal(t *testing.T) {
	cfg := config.DefaultConfig()
	manager, _ := auth.NewMockManager()

	_, err := resolveCredentials(cfg, manager, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.Equal(t, exitFailure, exitCode(err))
}

func TestResolveCredentialsPromptsAndSaves(t *testing.T) {
	quietUI(t)
	cfg := config.DefaultConfig()
	manager, store := auth.NewMockManager()

	prompt := func() (*auth.Credentials, error) {
		return &auth.Credentials{APIKey: "pk", AuthToken: "pt"}, nil
	}
	source, err := resolveCredentials(cfg, manager, prompt)
	require.NoError(t, err)
	assert.Equal(t, "prompt", source)
	assert.Equal(t, "pk", cfg.API.APIKey)
	assert.True(t, store.Exists(auth.DefaultProfile))
}

func TestResolveCredentialsPromptWithoutSaving(t *testing.T) {
	quietUI(t)
	cfg := config.DefaultConfig()
	cfg.Auth.SavePrompted = false
	manager, store := auth.NewMockManager()

	_, err := resolveCredentials(cfg, manager, func() (*auth.Credentials, error) {
		return &auth.Credentials{APIKey: "pk", AuthToken: "pt"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, store.Count())
}

func TestResolveCredentialsRejectsEmptyPrompt(t *testing.T) {
	quietUI(t)
	cfg := config.DefaultConfig()
	manager, _ := auth.NewMockManager()

	_, err := resolveCredentials(cfg, manager, func() (*auth.Credentials, error) {
		return &auth.Credentials{APIKey: "pk"}, nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth token")

	_, err = resolveCredentials(cfg, manager, func() (*auth.Credentials, error) {
		return nil, stderrors.New("EOF")
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestCommandFlagsOnlyIncludesChanged(t *testing.T) {
	require.NoError(t, crawlCmd.Flags().Set("max-pages", "5"))
	require.NoError(t, crawlCmd.Flags().Set("format", "text,json"))
	t.Cleanup(func() {
		maxPages, formats = 30, nil
		crawlCmd.Flags().Lookup("max-pages").Changed = false
		crawlCmd.Flags().Lookup("format").Changed = false
	})

	flags := commandFlags(crawlCmd)
	assert.Equal(t, 5, flags["max-pages"])
	assert.Equal(t, []string{"text", "json"}, flags["format"])
	_, ok := flags["lookback-hours"]
	assert.False(t, ok)
}

func TestMaskedConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.API.APIKey = "abcd1234efgh5678"
	cfg.API.AuthToken = "short"

	masked := maskedConfig(cfg)
	assert.Equal(t, "abcd********5678", masked.API.APIKey)
	assert.Equal(t, "*****", masked.API.AuthToken)
	assert.Equal(t, "abcd1234efgh5678", cfg.API.APIKey)
}
