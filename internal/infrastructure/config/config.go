package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all catalog engine configuration.
type Config struct {
	Catalog CatalogConfig
	Logging LogConfig
	Metrics MetricsConfig
}

// CatalogConfig holds repository configuration.
type CatalogConfig struct {
	// Path is a colon-separated list of catalog root locations.
	Path string `envconfig:"PACKFS_PATH" default:""`
	// MaxChangelogChars bounds changelogs recovered from legacy metadata.
	MaxChangelogChars int `envconfig:"PACKFS_MAX_CHANGELOG_CHARS" default:"65536"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"PACKFS_LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"PACKFS_LOG_DEV" default:"false"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool `envconfig:"PACKFS_METRICS_ENABLED" default:"false"`
}

// Locations returns the configured catalog roots in search order.
func (c CatalogConfig) Locations() []string {
	if c.Path == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(c.Path, ":") {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Catalog: CatalogConfig{
			MaxChangelogChars: 65536,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}
