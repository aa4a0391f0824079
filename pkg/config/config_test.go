package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSystemConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg := LoadSystemConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.Equal(t, 30, cfg.TimeoutMinutes)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DebugChunks)
}

func TestLoadSystemConfig_CorruptFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))
	cfg := LoadSystemConfig(path)
	assert.Equal(t, DefaultSystemConfig(), cfg)
}

func TestLoadSystemConfig_ReadsValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"timeout_minutes": 5,
		"disable_keep_alive": true,
		"debug_chunks": true,
		"log_level": "debug",
		"state_dir": "/tmp/flux"
	}`), 0644))

	cfg := LoadSystemConfig(path)
	assert.Equal(t, 5, cfg.TimeoutMinutes)
	assert.True(t, cfg.DisableKeepAlive)
	assert.True(t, cfg.DebugChunks)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/flux", cfg.StateDir)
}

func TestLoadSystemConfig_NonPositiveTimeoutFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"timeout_minutes": 0}`), 0644))
	assert.Equal(t, 30, LoadSystemConfig(path).TimeoutMinutes)
}
