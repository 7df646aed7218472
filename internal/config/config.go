// Package config holds the guide's static configuration: feed endpoints,
// the live polling interval and feature flags.
//
// Configuration starts from the built-in defaults, is optionally overlaid
// by a YAML file (the --config flag or MICHISHIRUBE_CONFIG), and finally by
// MICHISHIRUBE_* environment variables. The resulting value is passed by
// construction into the datastore and scheduler; nothing reads it globally.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable consulted when no config
// path is given explicitly.
const EnvConfigPath = "MICHISHIRUBE_CONFIG"

const (
	// DefaultGitHubBaseURL is the raw-content directory holding master.json.
	DefaultGitHubBaseURL = "https://raw.githubusercontent.com/OkinawaYT/Michishirube2026/main/data"

	// DefaultMasterURL is the master dataset document.
	DefaultMasterURL = DefaultGitHubBaseURL + "/master.json"

	// DefaultLiveURL is the Apps Script endpoint serving notices and parking.
	DefaultLiveURL = "https://script.google.com/macros/s/AKfycbxp4QWR2tbqXd-Nvoli8FK3VyBatIMTlFwdaapiheqXVrbLUiHXFzgOy0rkHYGbb9RE/exec"

	// DefaultLiveInterval is the live refresh period (3 minutes).
	DefaultLiveInterval = 180000 * time.Millisecond
)

// Config is the complete guide configuration.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Refresh  RefreshConfig  `yaml:"refresh"`
	Features FeaturesConfig `yaml:"features"`
}

// APIConfig locates the two feeds.
type APIConfig struct {
	MasterURL string `yaml:"master_url" env:"MICHISHIRUBE_MASTER_URL"`
	LiveURL   string `yaml:"live_url" env:"MICHISHIRUBE_LIVE_URL"`

	// RequestTimeout bounds a single GET. Zero means no timeout. Same
	// units as RefreshConfig.LiveInterval.
	RequestTimeout time.Duration `yaml:"request_timeout" env:"MICHISHIRUBE_REQUEST_TIMEOUT"`
}

// RefreshConfig controls the live polling cadence.
type RefreshConfig struct {
	// LiveInterval is a Go duration ("3m", "90s") in YAML. The environment
	// variable also accepts a bare integer in milliseconds ("180000").
	LiveInterval time.Duration `yaml:"live_interval" env:"MICHISHIRUBE_POLL_INTERVAL"`
}

// FeaturesConfig toggles optional behaviour.
type FeaturesConfig struct {
	LivePolling    bool `yaml:"live_polling" env:"MICHISHIRUBE_POLLING"`
	ConsoleLogging bool `yaml:"console_logging" env:"MICHISHIRUBE_LOGGING"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API: APIConfig{
			MasterURL: DefaultMasterURL,
			LiveURL:   DefaultLiveURL,
		},
		Refresh: RefreshConfig{
			LiveInterval: DefaultLiveInterval,
		},
		Features: FeaturesConfig{
			LivePolling:    true,
			ConsoleLogging: true,
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (if any) and
// the environment, then validates it. An empty path falls back to
// MICHISHIRUBE_CONFIG; when both are empty no file is read.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeFor[time.Duration](): parseDuration,
		},
	}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// parseDuration reads a Go duration, or a bare integer as milliseconds.
func parseDuration(v string) (any, error) {
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return nil, fmt.Errorf("invalid duration %q: want a Go duration such as 3m or milliseconds such as 180000", v)
	}
	return d, nil
}

// decodeYAML overlays data onto cfg, rejecting unknown keys.
func decodeYAML(data []byte, cfg *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(cfg)
}

// Validate reports every problem with the configuration.
func (c Config) Validate() error {
	var errs []error
	if err := validateURL("api.master_url", c.API.MasterURL); err != nil {
		errs = append(errs, err)
	}
	if err := validateURL("api.live_url", c.API.LiveURL); err != nil {
		errs = append(errs, err)
	}
	if c.API.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("api.request_timeout must not be negative"))
	}
	if c.Features.LivePolling && c.Refresh.LiveInterval <= 0 {
		errs = append(errs, fmt.Errorf("refresh.live_interval must be positive when live polling is enabled"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func validateURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL: %q", field, raw)
	}
	return nil
}
