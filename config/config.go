// Package config loads and validates the runtime configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/DanPeled/Synapse-sub001/errors"
)

// Config is the complete runtime configuration
type Config struct {
	NATS    NATSConfig    `yaml:"nats"`
	Sync    SyncConfig    `yaml:"sync"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`

	// SettingsPath is the persisted global settings file.
	SettingsPath string `yaml:"settings_path"`
}

// NATSConfig describes the substrate connection
type NATSConfig struct {
	URL           string        `yaml:"url"`
	Bucket        string        `yaml:"bucket"`
	Name          string        `yaml:"name"`
	Timeout       time.Duration `yaml:"timeout"`
	ReconnectWait time.Duration `yaml:"reconnect_wait"`
	MaxReconnects int           `yaml:"max_reconnects"`
}

// SyncConfig tunes the reconciliation loop
type SyncConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	Workers      int           `yaml:"workers"`
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		NATS: NATSConfig{
			URL:           "nats://127.0.0.1:4222",
			Bucket:        "synapse",
			Name:          "synapsed",
			Timeout:       5 * time.Second,
			ReconnectWait: 2 * time.Second,
			MaxReconnects: -1,
		},
		Sync: SyncConfig{
			TickInterval: 100 * time.Millisecond,
			Workers:      4,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		SettingsPath: "settings.yaml",
	}
}

// Load reads a configuration file and merges it over the defaults. A
// missing file yields the defaults; a malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrap(err, "Config", "Load", "read file")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(
			fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err),
			"Config", "Load", "parse yaml")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for usable values
func (c *Config) Validate() error {
	if c.NATS.URL == "" {
		return c.invalid("nats.url is required")
	}
	if c.NATS.Bucket == "" {
		return c.invalid("nats.bucket is required")
	}
	if c.Sync.TickInterval <= 0 {
		return c.invalid("sync.tick_interval must be positive")
	}
	if c.Sync.Workers <= 0 {
		return c.invalid("sync.workers must be positive")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return c.invalid("metrics.addr is required when metrics are enabled")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return c.invalid(fmt.Sprintf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return c.invalid(fmt.Sprintf("log.format %q is not one of text, json", c.Log.Format))
	}
	return nil
}

func (c *Config) invalid(reason string) error {
	return errors.Wrap(
		fmt.Errorf("%w: %s", errors.ErrInvalidConfig, reason),
		"Config", "Validate", "check fields")
}
