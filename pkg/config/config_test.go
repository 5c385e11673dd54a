package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[install]
timeout = "90s"
jobs = 4

[resolve]
transitive = true

[log]
verbose = true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Duration(90*time.Second), cfg.Install.Timeout)
	assert.Equal(t, 4, cfg.Install.Jobs)
	assert.True(t, cfg.Resolve.Transitive)
	assert.True(t, cfg.Log.Verbose)
	assert.Empty(t, cfg.Undecoded)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[resolve]\ntransitive = true\n"))
	require.NoError(t, err)
	assert.Equal(t, Default().Install, cfg.Install)
}

func TestLoadReportsUnknownKeys(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[install]\nretries = 3\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"install.retries"}, cfg.Undecoded)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "[install\n"},
		{"bad duration", "[install]\ntimeout = \"soon\"\n"},
		{"zero jobs", "[install]\njobs = 0\n"},
		{"negative timeout", "[install]\ntimeout = \"-1s\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
			assert.Equal(t, Default(), cfg)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	want := Default()
	want.Install.Jobs = 3
	want.Resolve.Transitive = true

	require.NoError(t, want.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "10m0s")
	assert.Contains(t, string(data), "[install]")

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
