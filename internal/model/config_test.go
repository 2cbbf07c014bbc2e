package model

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, 0, cfg.API.HTTPTimeoutSec)
	assert.True(t, cfg.Sync.Enabled)
	assert.Equal(t, 120, cfg.Sync.PollIntervalSec)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("FACULTYFLOW_API_BASE_URL", "https://portal.example.edu/api/")
	t.Setenv("FACULTYFLOW_SYNC_ENABLED", "false")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://portal.example.edu/api", cfg.API.BaseURL)
	assert.False(t, cfg.Sync.Enabled)
}

func TestSaveThenLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := defaultAppConfig()
	cfg.API.BaseURL = "https://faculty.example.edu/api"
	cfg.API.HTTPTimeoutSec = 15
	cfg.Sync.PollIntervalSec = 300
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://faculty.example.edu/api", loaded.API.BaseURL)
	assert.Equal(t, 15, loaded.API.HTTPTimeoutSec)
	assert.Equal(t, 300, loaded.Sync.PollIntervalSec)
}
