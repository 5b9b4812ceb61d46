// Package config resolves fetcher settings from defaults, an optional YAML
// file and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Sternrassler/tba-teams/pkg/client"
	"github.com/Sternrassler/tba-teams/pkg/logging"
	"github.com/Sternrassler/tba-teams/pkg/pagination"
	"github.com/Sternrassler/tba-teams/pkg/ratelimit"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load and ResolveAPIKey.
const (
	EnvAPIKey      = "TBA_API_KEY"
	EnvBaseURL     = "TBA_BASE_URL"
	EnvOutput      = "TBA_OUTPUT"
	EnvConfigPath  = "TBA_FETCH_CONFIG"
	EnvRedisURL    = "REDIS_URL"
	EnvPushgateway = "PUSHGATEWAY_URL"
	EnvLogLevel    = "LOG_LEVEL"
)

const (
	// DefaultConfigPath is searched when neither --config nor TBA_FETCH_CONFIG is set.
	DefaultConfigPath = "~/.config/tba-teams.yaml"

	// DefaultOutput is where the team table is written.
	DefaultOutput = "src/lib/teams.json"
)

// Config holds every tunable of a fetch run. The API key is not part of it;
// it only comes from the environment.
type Config struct {
	BaseURL string `yaml:"base-url"`
	Output  string `yaml:"output"`

	MaxPages      int           `yaml:"max-pages"`
	HardPageLimit int           `yaml:"hard-page-limit"`
	PageDelay     time.Duration `yaml:"page-delay"`

	Timeout          time.Duration `yaml:"timeout"`
	MaxAttempts      int           `yaml:"max-attempts"`
	RateLimitBackoff time.Duration `yaml:"rate-limit-backoff"`
	NetworkBackoff   time.Duration `yaml:"network-backoff"`

	RedisURL       string `yaml:"redis-url"`
	PushgatewayURL string `yaml:"pushgateway-url"`

	LogLevel string `yaml:"log-level"`
	Pretty   bool   `yaml:"pretty"`

	// Path is the config file that was read, empty if none.
	Path string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	retry := client.DefaultRetryConfig()
	driver := pagination.DefaultConfig()

	return &Config{
		BaseURL:          client.DefaultBaseURL,
		Output:           DefaultOutput,
		MaxPages:         driver.MaxPages,
		HardPageLimit:    driver.HardPageLimit,
		PageDelay:        ratelimit.DefaultPageDelay,
		Timeout:          30 * time.Second,
		MaxAttempts:      retry.MaxAttempts,
		RateLimitBackoff: retry.RateLimitBackoff,
		NetworkBackoff:   retry.NetworkBackoff,
		LogLevel:         logging.DefaultLevel,
	}
}

// Load builds the configuration: defaults, then the YAML file at path, then
// environment overrides. An empty path falls back to TBA_FETCH_CONFIG and
// then DefaultConfigPath; only the last one may be missing.
func Load(path string, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	cfg := Default()

	explicit := path != ""
	if !explicit {
		if path = getenv(EnvConfigPath); path != "" {
			explicit = true
		} else {
			path = DefaultConfigPath
		}
	}

	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand config path %q: %w", path, err)
	}

	data, err := os.ReadFile(expanded)
	switch {
	case err == nil:
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", expanded, err)
		}
		cfg.Path = expanded
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// no config file, defaults apply
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg.applyEnv(getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode rejects keys that Config does not know.
func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := getenv(EnvOutput); v != "" {
		c.Output = v
	}
	if v := getenv(EnvRedisURL); v != "" {
		c.RedisURL = v
	}
	if v := getenv(EnvPushgateway); v != "" {
		c.PushgatewayURL = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// Validate checks the configuration for values the fetcher cannot run with.
func (c *Config) Validate() error {
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base-url %q: %w", c.BaseURL, err)
	}
	if strings.TrimSpace(c.Output) == "" {
		return fmt.Errorf("output path is required")
	}
	if c.MaxPages < 1 {
		return fmt.Errorf("max-pages must be >= 1 (got %d)", c.MaxPages)
	}
	if c.HardPageLimit < c.MaxPages {
		return fmt.Errorf("hard-page-limit (%d) must be >= max-pages (%d)", c.HardPageLimit, c.MaxPages)
	}
	if c.PageDelay < 0 {
		return fmt.Errorf("page-delay must be >= 0 (got %s)", c.PageDelay)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %s)", c.Timeout)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max-attempts must be >= 1 (got %d)", c.MaxAttempts)
	}
	if c.RateLimitBackoff < 0 || c.NetworkBackoff < 0 {
		return fmt.Errorf("backoff durations must be >= 0")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// RetryConfig returns the client retry policy.
func (c *Config) RetryConfig() client.RetryConfig {
	return client.RetryConfig{
		MaxAttempts:      c.MaxAttempts,
		RateLimitBackoff: c.RateLimitBackoff,
		NetworkBackoff:   c.NetworkBackoff,
	}
}

// DriverConfig returns the pagination settings.
func (c *Config) DriverConfig() pagination.Config {
	return pagination.Config{
		MaxPages:      c.MaxPages,
		HardPageLimit: c.HardPageLimit,
		PageDelay:     c.PageDelay,
	}
}
