// Package config loads healthsync settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvDatabase = "HEALTHSYNC_DB"
	EnvTimezone = "HEALTHSYNC_TZ"
	EnvUser     = "HEALTHSYNC_USER"
)

// DefaultDatabase is used when neither the file nor the environment name one.
const DefaultDatabase = "healthsync.db"

// Config represents the healthsync configuration loaded from YAML.
type Config struct {
	// Database is the SQLite file path, or ":memory:".
	Database string `yaml:"database"`

	// Timezone is an IANA zone name used to resolve "today".
	Timezone string `yaml:"timezone"`

	// User is the default user id for commands that take --user.
	User string `yaml:"user"`

	// ReconcileOnRead re-runs reconciliation when a daily view is read.
	// A nil value means the default (true).
	ReconcileOnRead *bool `yaml:"reconcile_on_read"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	on := true
	return &Config{
		Database:        DefaultDatabase,
		Timezone:        "UTC",
		User:            "default",
		ReconcileOnRead: &on,
		LogLevel:        "info",
	}
}

// Load reads the YAML file at path over the defaults and then applies
// environment overrides. An empty path or a missing file yields the
// defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// fall through with defaults
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			var file Config
			if err := yaml.Unmarshal(data, &file); err != nil {
				return nil, fmt.Errorf("parsing YAML: %w", err)
			}
			cfg.merge(&file)
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPath returns the per-user config location,
// $XDG_CONFIG_HOME/healthsync/config.yaml or its OS equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "healthsync", "config.yaml")
}

func (c *Config) merge(o *Config) {
	if o.Database != "" {
		c.Database = o.Database
	}
	if o.Timezone != "" {
		c.Timezone = o.Timezone
	}
	if o.User != "" {
		c.User = o.User
	}
	if o.ReconcileOnRead != nil {
		c.ReconcileOnRead = o.ReconcileOnRead
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvDatabase); ok && v != "" {
		c.Database = v
	}
	if v, ok := lookup(EnvTimezone); ok && v != "" {
		c.Timezone = v
	}
	if v, ok := lookup(EnvUser); ok && v != "" {
		c.User = v
	}
}

// Validate checks that the timezone and log level are usable.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone. An empty value means UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Level maps LogLevel to a slog level.
func (c *Config) Level() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q: must be debug, info, warn or error", c.LogLevel)
	}
}

// ReconcileOnReadEnabled reports the effective reconcile_on_read value.
func (c *Config) ReconcileOnReadEnabled() bool {
	return c.ReconcileOnRead == nil || *c.ReconcileOnRead
}
