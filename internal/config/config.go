package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gemexbase/gemex/internal/backend"
	"github.com/gemexbase/gemex/internal/server"
	"github.com/gemexbase/gemex/internal/session"
)

// Config holds the application configuration
type Config struct {
	Server   server.Config  `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Backend  backend.Config `yaml:"backend"`
	Search   SearchConfig   `yaml:"search"`
	Sessions session.Config `yaml:"sessions"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server:   server.DefaultConfig(),
		Logging:  DefaultLoggingConfig(),
		Backend:  backend.DefaultConfig(),
		Search:   DefaultSearchConfig(),
		Sessions: session.DefaultConfig(),
	}
}

// LoadConfig loads configuration from configDir.
// Order: defaults -> config.yml -> config.local.yml -> ApplyDefaults ->
// ApplyEnvOverrides -> ResolvePaths -> Validate
func LoadConfig(configDir string) (*Config, error) {
	// Defaults first so YAML can override them, including bool fields
	cfg := Default()

	if err := loadFile(filepath.Join(configDir, "config.yml"), cfg); err != nil {
		return nil, err
	}
	if err := loadFile(filepath.Join(configDir, "config.local.yml"), cfg); err != nil {
		return nil, err
	}

	// Runtime data (logs) lives next to the config directory
	dataDir := filepath.Dir(filepath.Clean(configDir))
	if err := cfg.Apply(configDir, dataDir); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Apply runs the configuration lifecycle on every section.
func (c *Config) Apply(configDir, dataDir string) error {
	if err := ApplyServiceConfigs(configDir, dataDir,
		&c.Server,
		&c.Logging,
		&c.Backend,
		&c.Search,
		&c.Sessions,
	); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	return nil
}

func loadFile(filename string, cfg *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, skip
		}
		slog.Warn("Error reading config file", "file", filename, "error", err)
		return nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", filename, err)
	}
	return nil
}
