package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultDatabase, cfg.Database)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, "default", cfg.User)
	assert.True(t, cfg.ReconcileOnReadEnabled())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultDatabase, cfg.Database)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
database: /tmp/health.db
timezone: America/New_York
user: alice
reconcile_on_read: false
log_level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/health.db", cfg.Database)
	assert.Equal(t, "America/New_York", cfg.Timezone)
	assert.Equal(t, "alice", cfg.User)
	assert.False(t, cfg.ReconcileOnReadEnabled())

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "user: bob\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bob", cfg.User)
	assert.Equal(t, DefaultDatabase, cfg.Database)
	assert.True(t, cfg.ReconcileOnReadEnabled())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "database: from-file.db\ntimezone: UTC\n")
	t.Setenv(EnvDatabase, "from-env.db")
	t.Setenv(EnvTimezone, "Europe/Berlin")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.Database)
	assert.Equal(t, "Europe/Berlin", cfg.Timezone)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "database: [unclosed\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing YAML")
}

func TestLoad_InvalidTimezone(t *testing.T) {
	path := writeConfig(t, "timezone: Mars/Olympus\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timezone")
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	path := writeConfig(t, "log_level: loud\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log_level")
}

func TestLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := (&Config{LogLevel: tt.in}).Level()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
