package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "", cfg.Catalog.Path)
	assert.Equal(t, 65536, cfg.Catalog.MaxChangelogChars)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	t.Setenv("PACKFS_PATH", "/packages:/opt/packages")
	t.Setenv("PACKFS_MAX_CHANGELOG_CHARS", "1024")
	t.Setenv("PACKFS_LOG_LEVEL", "debug")
	t.Setenv("PACKFS_LOG_DEV", "true")
	t.Setenv("PACKFS_METRICS_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"/packages", "/opt/packages"}, cfg.Catalog.Locations())
	assert.Equal(t, 1024, cfg.Catalog.MaxChangelogChars)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLocationsEmpty(t *testing.T) {
	cfg := Default()
	assert.Nil(t, cfg.Catalog.Locations())

	cfg.Catalog.Path = "::"
	assert.Nil(t, cfg.Catalog.Locations())
}
