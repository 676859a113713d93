package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"rwm/internal/domain"
	"rwm/internal/storage/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultValues(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, domain.LinkSymlink, cfg.LinkMethod)
	assert.Equal(t, "less", cfg.Pager)
	assert.False(t, cfg.UsePager)
	assert.Equal(t, 0, cfg.Download.MaxAttempts)
	assert.Equal(t, 5, cfg.Download.AdminAttempts)
	assert.Equal(t, time.Hour, cfg.Catalog.CacheTTL)
	assert.Equal(t, 60*time.Second, cfg.HookTimeout)
	assert.True(t, cfg.Hooks.Install.IsEmpty())
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
game_path: /games/RimWorld
link_method: copy
use_pager: true
pager: bat
download:
  max_attempts: 7
  attempt_timeout: 2m
catalog:
  cache_ttl: 10m
hooks:
  install:
    after_all: /scripts/sort.sh
hook_timeout: 5s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644))

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/games/RimWorld", cfg.GamePath)
	assert.Equal(t, domain.LinkCopy, cfg.LinkMethod)
	assert.True(t, cfg.UsePager)
	assert.Equal(t, "bat", cfg.Pager)
	assert.Equal(t, 7, cfg.Download.MaxAttempts)
	assert.Equal(t, 2*time.Minute, cfg.Download.AttemptTimeout)
	assert.Equal(t, 5, cfg.Download.AdminAttempts, "unset keys keep defaults")
	assert.Equal(t, 10*time.Minute, cfg.Catalog.CacheTTL)
	assert.Equal(t, "/scripts/sort.sh", cfg.Hooks.Install.AfterAll)
	assert.Equal(t, 5*time.Second, cfg.HookTimeout)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("download:\n  max_attempts: -1\n"), 0644))

	_, err := config.Load(dir)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("game_path: [unterminated"), 0644))
	_, err = config.Load(dir)
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "rwm")

	cfg := config.Default()
	cfg.GamePath = "/games/RimWorld"
	cfg.LinkMethod = domain.LinkHardlink
	cfg.Download.AttemptTimeout = 90 * time.Second
	cfg.Hooks.Install.BeforeAll = "/scripts/backup.sh"
	require.NoError(t, cfg.Save(dir))

	loaded, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/games/RimWorld", loaded.GamePath)
	assert.Equal(t, domain.LinkHardlink, loaded.LinkMethod)
	assert.Equal(t, 90*time.Second, loaded.Download.AttemptTimeout)
	assert.Equal(t, "/scripts/backup.sh", loaded.Hooks.Install.BeforeAll)
}

func TestConfig_SetAndGet(t *testing.T) {
	cfg := config.Default()

	tests := []struct {
		key, value, want string
	}{
		{"game_path", "/opt/RimWorld", "/opt/RimWorld"},
		{"path", "/srv/RimWorld", "/srv/RimWorld"},
		{"use-pager", "1", "true"},
		{"use_pager", "false", "false"},
		{"paging", "more", "more"},
		{"link_method", "copy", "copy"},
		{"download.max_attempts", "3", "3"},
		{"download.attempt_timeout", "45s", "45s"},
		{"catalog.cache_ttl", "0s", "0s"},
		{"hooks.install.after_each", "/bin/true", "/bin/true"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			require.NoError(t, cfg.Set(tt.key, tt.value))
			got, err := cfg.Get(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfig_SetRejectsBadValues(t *testing.T) {
	cfg := config.Default()

	for key, value := range map[string]string{
		"use_pager":             "maybe",
		"link_method":           "teleport",
		"download.max_attempts": "-2",
		"hook_timeout":          "soon",
		"no_such_key":           "x",
	} {
		assert.ErrorIs(t, cfg.Set(key, value), domain.ErrInvalidConfig, key)
	}
}

func TestConfig_ModsPath(t *testing.T) {
	cfg := config.Default()
	_, err := cfg.ModsPath()
	assert.ErrorIs(t, err, domain.ErrGameNotConfigured)

	cfg.GamePath = "/games/RimWorld"
	mods, err := cfg.ModsPath()
	require.NoError(t, err)
	assert.Equal(t, "/games/RimWorld/Mods", mods)
}

func TestKeys_Sorted(t *testing.T) {
	keys := config.Keys()
	assert.Contains(t, keys, "game_path")
	assert.IsIncreasing(t, keys)
}
