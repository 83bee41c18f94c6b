package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMalformedFileFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rayhunter_config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid toml"), 0o644))

	cfg, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rayhunter_config.toml")

	cfg := Default()
	cfg.Port = 9001
	cfg.Device = DeviceTplink
	cfg.EnabledNotifications = []NotificationKind{NotificationWarning}
	cfg.Analyzers = map[string]bool{"IMSI Provided": false}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Port, loaded.Port)
	assert.Equal(t, cfg.Device, loaded.Device)
	assert.True(t, loaded.NotificationEnabled(NotificationWarning))
	assert.False(t, loaded.NotificationEnabled(NotificationLowBattery))
	assert.Equal(t, false, loaded.Analyzers["IMSI Provided"])
}
