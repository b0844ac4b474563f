// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Environment overrides. Secrets such as the Telegram init data are
// expected here rather than in the file.
const (
	EnvSyncURL  = "TUIFIT_SYNC_URL"
	EnvInitData = "TUIFIT_INIT_DATA"
	EnvLogLevel = "TUIFIT_LOG_LEVEL"
	EnvTimeout  = "TUIFIT_SYNC_TIMEOUT"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Session SessionConfig `toml:"session"`
	Rewards RewardsConfig `toml:"rewards"`
	Sync    SyncConfig    `toml:"sync"`
	Log     LogConfig     `toml:"log"`
}

// SessionConfig maps workout session settings.
type SessionConfig struct {
	Level    *string `toml:"level"`
	GetReady *int    `toml:"get-ready"`
	Haptics  *bool   `toml:"haptics"`
}

// RewardsConfig maps calendar bonus settings.
type RewardsConfig struct {
	DaysPerWeek *int `toml:"days-per-week"`
}

// SyncConfig maps remote sync settings.
type SyncConfig struct {
	URL      *string `toml:"url"`
	InitData *string `toml:"init-data"`
	Timeout  *int    `toml:"timeout"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
}

// LoadConfig reads a TOML config from the given path and applies
// environment overrides. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	var cfg FileConfig
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
		}
	} else if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *FileConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvSyncURL)); v != "" {
		cfg.Sync.URL = &v
	}
	if v := os.Getenv(EnvInitData); v != "" {
		cfg.Sync.InitData = &v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimeout)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sync.Timeout = &n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Log.Level = &v
	}
}

// StringOr dereferences v or returns def.
func StringOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

// IntOr dereferences v or returns def.
func IntOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

// BoolOr dereferences v or returns def.
func BoolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
