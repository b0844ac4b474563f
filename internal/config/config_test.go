package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv(EnvSyncURL, "")
	t.Setenv(EnvInitData, "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvTimeout, "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Session.Level)
	assert.Nil(t, cfg.Sync.URL)
}

func TestLoadConfigDecodesSections(t *testing.T) {
	t.Setenv(EnvSyncURL, "")
	t.Setenv(EnvInitData, "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvTimeout, "")

	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[session]
level = "advanced"
get-ready = 3
haptics = false

[rewards]
days-per-week = 4

[sync]
url = "https://example.test/functions/v1"
timeout = 7

[log]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "advanced", StringOr(cfg.Session.Level, ""))
	assert.Equal(t, 3, IntOr(cfg.Session.GetReady, 0))
	assert.False(t, BoolOr(cfg.Session.Haptics, true))
	assert.Equal(t, 4, IntOr(cfg.Rewards.DaysPerWeek, 0))
	assert.Equal(t, "https://example.test/functions/v1", StringOr(cfg.Sync.URL, ""))
	assert.Equal(t, 7, IntOr(cfg.Sync.Timeout, 0))
	assert.Equal(t, "debug", StringOr(cfg.Log.Level, ""))
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[sync]\nurl = \"https://file.test\"\n"), 0o644))

	t.Setenv(EnvSyncURL, "https://env.test")
	t.Setenv(EnvInitData, "query_id=1&user=2")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvTimeout, "nope")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.test", StringOr(cfg.Sync.URL, ""))
	assert.Equal(t, "query_id=1&user=2", StringOr(cfg.Sync.InitData, ""))
	assert.Equal(t, "warn", StringOr(cfg.Log.Level, ""))
	assert.Nil(t, cfg.Sync.Timeout)
}

func TestLoadConfigRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[session\nlevel = "), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestDefaultPathsUseXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	t.Setenv("XDG_STATE_HOME", "/tmp/state")

	assert.Equal(t, filepath.Join("/tmp/cfg", "tuifit", "config.toml"), DefaultConfigPath())
	assert.Equal(t, filepath.Join("/tmp/cfg", "tuifit", "catalog.yaml"), DefaultCatalogPath())
	assert.Equal(t, filepath.Join("/tmp/data", "tuifit", "tuifit.db"), DefaultDBPath())
	assert.Equal(t, filepath.Join("/tmp/state", "tuifit", "tuifit.log"), DefaultLogPath())
}
