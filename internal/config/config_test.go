package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "guide.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultMasterURL, cfg.API.MasterURL)
	assert.Equal(t, DefaultLiveURL, cfg.API.LiveURL)
	assert.Equal(t, 3*time.Minute, cfg.Refresh.LiveInterval)
	assert.True(t, cfg.Features.LivePolling)
	assert.True(t, cfg.Features.ConsoleLogging)
	assert.Zero(t, cfg.API.RequestTimeout)
	require.NoError(t, cfg.Validate())
}

func TestLoad_NoFile(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
api:
  master_url: https://example.test/master.json
refresh:
  live_interval: 90s
features:
  console_logging: false
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.test/master.json", cfg.API.MasterURL)
	assert.Equal(t, DefaultLiveURL, cfg.API.LiveURL, "unset keys keep defaults")
	assert.Equal(t, 90*time.Second, cfg.Refresh.LiveInterval)
	assert.False(t, cfg.Features.ConsoleLogging)
	assert.True(t, cfg.Features.LivePolling)
}

func TestLoad_PathFromEnv(t *testing.T) {
	path := writeConfig(t, "api:\n  live_url: https://example.test/live\n")
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/live", cfg.API.LiveURL)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, "\n"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	path := writeConfig(t, "refresh:\n  live_intervall: 10s\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "live_intervall")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
api:
  master_url: https://file.test/master.json
refresh:
  live_interval: 90s
`)
	t.Setenv("MICHISHIRUBE_MASTER_URL", "https://env.test/master.json")
	t.Setenv("MICHISHIRUBE_POLL_INTERVAL", "45s")
	t.Setenv("MICHISHIRUBE_POLLING", "false")
	t.Setenv("MICHISHIRUBE_REQUEST_TIMEOUT", "5s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.test/master.json", cfg.API.MasterURL)
	assert.Equal(t, 45*time.Second, cfg.Refresh.LiveInterval)
	assert.False(t, cfg.Features.LivePolling)
	assert.Equal(t, 5*time.Second, cfg.API.RequestTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "empty master url",
			mutate:  func(c *Config) { c.API.MasterURL = "" },
			wantErr: "api.master_url is required",
		},
		{
			name:    "relative live url",
			mutate:  func(c *Config) { c.API.LiveURL = "/exec" },
			wantErr: "api.live_url must be an absolute URL",
		},
		{
			name:    "zero interval with polling",
			mutate:  func(c *Config) { c.Refresh.LiveInterval = 0 },
			wantErr: "refresh.live_interval must be positive",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.API.RequestTimeout = -time.Second },
			wantErr: "api.request_timeout",
		},
		{
			name: "zero interval without polling",
			mutate: func(c *Config) {
				c.Refresh.LiveInterval = 0
				c.Features.LivePolling = false
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_EnvDurationUnits(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"180000", DefaultLiveInterval},
		{"3m", 3 * time.Minute},
		{"1500", 1500 * time.Millisecond},
		{"2m30s", 150 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv(EnvConfigPath, "")
			t.Setenv("MICHISHIRUBE_POLL_INTERVAL", tt.value)
			t.Setenv("MICHISHIRUBE_REQUEST_TIMEOUT", tt.value)

			cfg, err := Load("")
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Refresh.LiveInterval)
			assert.Equal(t, tt.want, cfg.API.RequestTimeout)
		})
	}
}

func TestLoad_EnvDurationInvalid(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv("MICHISHIRUBE_POLL_INTERVAL", "soon")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "milliseconds")
}
