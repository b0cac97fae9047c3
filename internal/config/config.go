// Package config provides configuration management for paper-ladder.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for paper-ladder.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Search contains aggregated search settings.
	Search SearchConfig `mapstructure:"search"`
	// PDF contains PDF download settings.
	PDF PDFConfig `mapstructure:"pdf"`
	// Sources contains per-source API configurations.
	Sources SourcesConfig `mapstructure:"sources"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// Port is the HTTP server port (default: 8080).
	Port int `mapstructure:"port"`
	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing a response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for the metrics endpoint.
	Path string `mapstructure:"path"`
}

// SearchConfig holds aggregated search configuration.
type SearchConfig struct {
	// DefaultLimit is the result limit used when a request leaves it unset.
	DefaultLimit int `mapstructure:"default_limit"`
	// MaxLimit is the largest result limit a request may ask for.
	MaxLimit int `mapstructure:"max_limit"`
	// SourceTimeout bounds each individual source's work within a search.
	SourceTimeout time.Duration `mapstructure:"source_timeout"`
	// AutoPaginate makes searches walk result pages until the limit is
	// filled instead of fetching a single batch.
	AutoPaginate bool `mapstructure:"auto_paginate"`
}

// PDFConfig holds PDF download configuration.
type PDFConfig struct {
	// Dir is the directory downloaded PDFs are written to.
	Dir string `mapstructure:"dir"`
	// MaxSizeBytes caps the size of a single downloaded PDF.
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
	// Timeout is the timeout for a single download.
	Timeout time.Duration `mapstructure:"timeout"`
}

// SourcesConfig holds configuration for every paper source.
type SourcesConfig struct {
	// OpenAlex contains OpenAlex API settings.
	OpenAlex SourceConfig `mapstructure:"openalex"`
	// SemanticScholar contains Semantic Scholar API settings.
	SemanticScholar SourceConfig `mapstructure:"semanticscholar"`
	// Crossref contains Crossref API settings.
	Crossref SourceConfig `mapstructure:"crossref"`
	// ArXiv contains arXiv API settings.
	ArXiv SourceConfig `mapstructure:"arxiv"`
	// PubMed contains PubMed API settings.
	PubMed SourceConfig `mapstructure:"pubmed"`
	// DBLP contains dblp API settings.
	DBLP SourceConfig `mapstructure:"dblp"`
	// DOAJ contains DOAJ API settings.
	DOAJ SourceConfig `mapstructure:"doaj"`
	// Core contains CORE API settings.
	Core SourceConfig `mapstructure:"core"`
	// EuropePMC contains Europe PMC API settings.
	EuropePMC SourceConfig `mapstructure:"europepmc"`
	// BioRxiv contains bioRxiv content API settings.
	BioRxiv SourceConfig `mapstructure:"biorxiv"`
	// MedRxiv contains medRxiv content API settings.
	MedRxiv SourceConfig `mapstructure:"medrxiv"`
	// Scopus contains Scopus API settings.
	Scopus SourceConfig `mapstructure:"scopus"`
}

// SourceConfig holds configuration for a single paper source.
type SourceConfig struct {
	// Enabled controls whether this source is used.
	Enabled bool `mapstructure:"enabled"`
	// APIKey is the API key, loaded exclusively from an environment
	// variable such as PAPERLADDER_SOURCES_SCOPUS_API_KEY.
	APIKey string `mapstructure:"-"`
	// BaseURL overrides the API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Email is the contact address attached to requests for sources with
	// polite pools.
	Email string `mapstructure:"email"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("PAPERLADDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/paper-ladder")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file means env vars and defaults only.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Secrets use mapstructure:"-" so they never load from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment
// variables.
func loadSecrets(cfg *Config) {
	cfg.Sources.SemanticScholar.APIKey = os.Getenv("PAPERLADDER_SOURCES_SEMANTICSCHOLAR_API_KEY")
	cfg.Sources.PubMed.APIKey = os.Getenv("PAPERLADDER_SOURCES_PUBMED_API_KEY")
	cfg.Sources.Core.APIKey = os.Getenv("PAPERLADDER_SOURCES_CORE_API_KEY")
	cfg.Sources.Scopus.APIKey = os.Getenv("PAPERLADDER_SOURCES_SCOPUS_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Search defaults
	v.SetDefault("search.default_limit", 10)
	v.SetDefault("search.max_limit", 500)
	v.SetDefault("search.source_timeout", "60s")
	v.SetDefault("search.auto_paginate", true)

	// PDF defaults
	v.SetDefault("pdf.dir", "papers")
	v.SetDefault("pdf.max_size_bytes", 100<<20)
	v.SetDefault("pdf.timeout", "120s")

	// Source defaults. API keys load exclusively from environment
	// variables (see loadSecrets).
	v.SetDefault("sources.openalex.enabled", true)
	v.SetDefault("sources.openalex.rate_limit", 10.0)

	v.SetDefault("sources.semanticscholar.enabled", true)
	v.SetDefault("sources.semanticscholar.rate_limit", 1.0)

	v.SetDefault("sources.crossref.enabled", true)
	v.SetDefault("sources.crossref.rate_limit", 10.0)

	v.SetDefault("sources.arxiv.enabled", true)
	v.SetDefault("sources.arxiv.rate_limit", 0.33) // one request every ~3s

	v.SetDefault("sources.pubmed.enabled", true)
	v.SetDefault("sources.pubmed.rate_limit", 3.0)

	v.SetDefault("sources.dblp.enabled", true)
	v.SetDefault("sources.dblp.rate_limit", 1.0)

	v.SetDefault("sources.doaj.enabled", true)
	v.SetDefault("sources.doaj.rate_limit", 2.0)

	// CORE and Scopus need API keys, so they stay off until one is set.
	v.SetDefault("sources.core.enabled", false)
	v.SetDefault("sources.core.rate_limit", 2.0)

	v.SetDefault("sources.europepmc.enabled", true)
	v.SetDefault("sources.europepmc.rate_limit", 5.0)

	v.SetDefault("sources.biorxiv.enabled", true)
	v.SetDefault("sources.biorxiv.rate_limit", 1.0)

	v.SetDefault("sources.medrxiv.enabled", true)
	v.SetDefault("sources.medrxiv.rate_limit", 1.0)

	v.SetDefault("sources.scopus.enabled", false)
	v.SetDefault("sources.scopus.rate_limit", 2.0)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Search.DefaultLimit <= 0 {
		return fmt.Errorf("search default_limit must be positive")
	}
	if c.Search.MaxLimit < c.Search.DefaultLimit {
		return fmt.Errorf("search max_limit (%d) must be >= default_limit (%d)", c.Search.MaxLimit, c.Search.DefaultLimit)
	}
	if c.Search.SourceTimeout <= 0 {
		return fmt.Errorf("search source_timeout must be positive")
	}

	if c.PDF.MaxSizeBytes <= 0 {
		return fmt.Errorf("pdf max_size_bytes must be positive")
	}

	for name, source := range map[string]*SourceConfig{
		"openalex":        &c.Sources.OpenAlex,
		"semanticscholar": &c.Sources.SemanticScholar,
		"crossref":        &c.Sources.Crossref,
		"arxiv":           &c.Sources.ArXiv,
		"pubmed":          &c.Sources.PubMed,
		"dblp":            &c.Sources.DBLP,
		"doaj":            &c.Sources.DOAJ,
		"core":            &c.Sources.Core,
		"europepmc":       &c.Sources.EuropePMC,
		"biorxiv":         &c.Sources.BioRxiv,
		"medrxiv":         &c.Sources.MedRxiv,
		"scopus":          &c.Sources.Scopus,
	} {
		if source.RateLimit < 0 {
			return fmt.Errorf("source %s: rate_limit must not be negative", name)
		}
		if source.Timeout < 0 {
			return fmt.Errorf("source %s: timeout must not be negative", name)
		}
	}

	return nil
}
