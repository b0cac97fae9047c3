package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.HTTPAddress())

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)

	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.Equal(t, 500, cfg.Search.MaxLimit)
	assert.Equal(t, time.Minute, cfg.Search.SourceTimeout)
	assert.True(t, cfg.Search.AutoPaginate)

	assert.True(t, cfg.Sources.OpenAlex.Enabled)
	assert.True(t, cfg.Sources.EuropePMC.Enabled)
	assert.True(t, cfg.Sources.MedRxiv.Enabled)
	assert.False(t, cfg.Sources.Core.Enabled, "keyed sources default off")
	assert.False(t, cfg.Sources.Scopus.Enabled, "keyed sources default off")
	assert.InDelta(t, 0.33, cfg.Sources.ArXiv.RateLimit, 0.001)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PAPERLADDER_SERVER_PORT", "9999")
	t.Setenv("PAPERLADDER_LOGGING_LEVEL", "debug")
	t.Setenv("PAPERLADDER_SEARCH_DEFAULT_LIMIT", "25")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 25, cfg.Search.DefaultLimit)
}

func TestSecretsComeFromEnvOnly(t *testing.T) {
	t.Setenv("PAPERLADDER_SOURCES_SCOPUS_API_KEY", "scopus-secret")
	t.Setenv("PAPERLADDER_SOURCES_CORE_API_KEY", "core-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "scopus-secret", cfg.Sources.Scopus.APIKey)
	assert.Equal(t, "core-secret", cfg.Sources.Core.APIKey)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "invalid server port",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name:    "zero default limit",
			mutate:  func(c *Config) { c.Search.DefaultLimit = 0 },
			wantErr: "default_limit must be positive",
		},
		{
			name:    "max below default",
			mutate:  func(c *Config) { c.Search.MaxLimit = 5 },
			wantErr: "max_limit",
		},
		{
			name:    "negative source rate",
			mutate:  func(c *Config) { c.Sources.DBLP.RateLimit = -1 },
			wantErr: "rate_limit must not be negative",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
