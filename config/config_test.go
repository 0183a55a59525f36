package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanPeled/Synapse-sub001/errors"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, "synapse", cfg.NATS.Bucket)
	assert.Equal(t, 100*time.Millisecond, cfg.Sync.TickInterval)
	assert.Equal(t, 4, cfg.Sync.Workers)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
nats:
  url: nats://10.0.0.2:4222
  bucket: synapse
  name: synapsed
  timeout: 5s
  reconnect_wait: 2s
  max_reconnects: -1
sync:
  tick_interval: 50ms
  workers: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "nats://10.0.0.2:4222", cfg.NATS.URL)
	assert.Equal(t, 50*time.Millisecond, cfg.Sync.TickInterval)
	assert.Equal(t, 2, cfg.Sync.Workers)
	// Untouched sections keep defaults.
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nats: ["), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing url", func(c *Config) { c.NATS.URL = "" }},
		{"missing bucket", func(c *Config) { c.NATS.Bucket = "" }},
		{"zero tick", func(c *Config) { c.Sync.TickInterval = 0 }},
		{"zero workers", func(c *Config) { c.Sync.Workers = 0 }},
		{"metrics without addr", func(c *Config) { c.Metrics.Addr = "" }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
		})
	}

	assert.NoError(t, Default().Validate())
}
