// Package config holds the yaml configuration for the difftrace
// tooling. The trace core itself takes no configuration; these knobs
// shape the inspector and the loaders built around it.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the complete tooling configuration.
type Config struct {
	// Staging configures the ordered staging buffer.
	Staging StagingConfig `yaml:"staging"`

	// Loader configures update-stream file handling.
	Loader LoaderConfig `yaml:"loader"`

	// Stats configures spine statistics.
	Stats StatsConfig `yaml:"stats"`

	// Log configures logging output.
	Log LogConfig `yaml:"log"`
}

// StagingConfig configures the ordered staging buffer.
type StagingConfig struct {
	// FlushThreshold is the staged entry count at which the inspector
	// flushes the buffer into the spine automatically. Zero disables
	// automatic flushing.
	FlushThreshold int `yaml:"flush_threshold"`
}

// LoaderConfig configures update-stream file handling.
type LoaderConfig struct {
	// Compression is the Parquet compression algorithm for written
	// files: snappy, zstd, lz4, gzip or none.
	Compression string `yaml:"compression"`
}

// StatsConfig configures spine statistics.
type StatsConfig struct {
	// Enabled toggles the stats display in the inspector.
	Enabled bool `yaml:"enabled"`
}

// LogConfig configures logging output.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`

	// JSON switches output to JSON format.
	JSON bool `yaml:"json"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Staging: StagingConfig{FlushThreshold: 4096},
		Loader:  LoaderConfig{Compression: "zstd"},
		Stats:   StatsConfig{Enabled: true},
		Log:     LogConfig{Level: "info"},
	}
}

// Load reads and validates a configuration file. Fields left unset keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Staging.FlushThreshold < 0 {
		return fmt.Errorf("staging.flush_threshold must not be negative, got %d", c.Staging.FlushThreshold)
	}
	switch c.Loader.Compression {
	case "", "none", "snappy", "zstd", "lz4", "gzip":
	default:
		return fmt.Errorf("loader.compression: unknown algorithm %q", c.Loader.Compression)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	return nil
}
