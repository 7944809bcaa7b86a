// Package config provides configuration management for the lomba-events
// binaries: process settings loaded from YAML with environment overrides,
// and the Rules lexicon consumed by the normalization engine.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrSourceMissingName  = errors.New("source name is required")
	ErrSourceMissingURL   = errors.New("source url is required")
	ErrInvalidMaxAttempts = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidDelay       = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidTimeout     = errors.New("retry.timeout_sec must be at least 1")
	ErrInvalidLogLevel    = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrMissingDatabase    = errors.New("database.path is required")
)

// Config is the complete process configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
	Sources  []SourceConfig `yaml:"sources"`
	Retry    RetryPolicy    `yaml:"retry"`

	// Rules overrides the built-in lexicon when present.
	Rules *Rules `yaml:"rules"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// HTTPConfig configures the read API server.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SourceConfig describes one listing source to collect from.
type SourceConfig struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`

	// DefaultOrganizer is used when a page carries no organizer at all,
	// e.g. the account name behind a social source.
	DefaultOrganizer string `yaml:"default_organizer"`
}

// RetryPolicy defines fetch retry behavior.
type RetryPolicy struct {
	MaxAttempts    int `yaml:"max_attempts"`
	InitialDelayMs int `yaml:"initial_delay_ms"`
	MaxDelayMs     int `yaml:"max_delay_ms"`
	TimeoutSec     int `yaml:"timeout_sec"`
}

// InitialDelay returns the initial retry delay as a duration.
func (r RetryPolicy) InitialDelay() time.Duration {
	return time.Duration(r.InitialDelayMs) * time.Millisecond
}

// MaxDelay returns the retry delay ceiling as a duration.
func (r RetryPolicy) MaxDelay() time.Duration {
	return time.Duration(r.MaxDelayMs) * time.Millisecond
}

// Timeout returns the per-request timeout as a duration.
func (r RetryPolicy) Timeout() time.Duration {
	return time.Duration(r.TimeoutSec) * time.Second
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "lomba-events.db"},
		HTTP:     HTTPConfig{Addr: ":8080"},
		Logging:  LoggingConfig{Level: "info"},
		Retry: RetryPolicy{
			MaxAttempts:    3,
			InitialDelayMs: 500,
			MaxDelayMs:     10000,
			TimeoutSec:     30,
		},
	}
}

// Load reads a YAML configuration file, applies defaults for absent
// sections, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return ErrMissingDatabase
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}
	if c.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}
	if c.Retry.InitialDelayMs < 0 {
		return ErrInvalidDelay
	}
	if c.Retry.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}
	for i, src := range c.Sources {
		if src.Name == "" {
			return fmt.Errorf("source %d: %w", i, ErrSourceMissingName)
		}
		if src.URL == "" {
			return fmt.Errorf("source %q: %w", src.Name, ErrSourceMissingURL)
		}
	}
	return nil
}

// EffectiveRules returns the configured lexicon, falling back to the
// built-in defaults.
func (c *Config) EffectiveRules() *Rules {
	if c.Rules != nil {
		return c.Rules
	}
	return DefaultRules()
}

// EnabledSources returns only the sources marked enabled.
func (c *Config) EnabledSources() []SourceConfig {
	enabled := make([]SourceConfig, 0, len(c.Sources))
	for _, src := range c.Sources {
		if src.Enabled {
			enabled = append(enabled, src)
		}
	}
	return enabled
}
