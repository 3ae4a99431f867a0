package backend

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Config holds the connection settings of the GEMEX backend REST API.
type Config struct {
	BaseURL      string        `yaml:"base_url"`
	APIPrefix    string        `yaml:"api_prefix"`
	Timeout      time.Duration `yaml:"timeout"`
	Token        string        `yaml:"token"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
}

// DefaultConfig returns defaults for a backend running next to the service.
func DefaultConfig() Config {
	return Config{
		BaseURL:      "http://localhost:8000",
		APIPrefix:    "/api",
		Timeout:      30 * time.Second,
		MaxIdleConns: 100,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = defaults.BaseURL
	}
	if c.APIPrefix == "" {
		c.APIPrefix = defaults.APIPrefix
	}
	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = defaults.MaxIdleConns
	}
}

// ApplyEnvOverrides applies GEMEX_BACKEND_URL and GEMEX_BACKEND_TOKEN.
func (c *Config) ApplyEnvOverrides() {
	if val := os.Getenv("GEMEX_BACKEND_URL"); val != "" {
		c.BaseURL = val
	}
	if val := os.Getenv("GEMEX_BACKEND_TOKEN"); val != "" {
		c.Token = val
	}
}

// ResolvePaths is a no-op: the backend config holds no paths.
func (c *Config) ResolvePaths(_, _ string) { _ = c }

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("backend.base_url: invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend.base_url: invalid URL scheme %q (must be http or https)", u.Scheme)
	}
	if !strings.HasPrefix(c.APIPrefix, "/") {
		return fmt.Errorf("backend.api_prefix must start with '/': %q", c.APIPrefix)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("backend.timeout must not be negative")
	}
	return nil
}
