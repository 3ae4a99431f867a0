package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string         `yaml:"level"`  // debug, info, warn, error
	Format   string         `yaml:"format"` // text, json
	Dir      string         `yaml:"dir"`    // directory of gemex.log and errors.log
	Rotation RotationConfig `yaml:"rotation"`
	Console  OutputConfig   `yaml:"console"`
	File     OutputConfig   `yaml:"file"`

	// RepeatWindow suppresses identical warnings within the window; 0 disables.
	RepeatWindow time.Duration `yaml:"repeat_window"`
}

// RotationConfig holds lumberjack rotation settings
type RotationConfig struct {
	MaxSize    int  `yaml:"max_size"`    // MB
	MaxBackups int  `yaml:"max_backups"` // number of files
	MaxAge     int  `yaml:"max_age"`     // days
	Compress   bool `yaml:"compress"`
}

// OutputConfig configures one log output. Empty level and format inherit the
// top-level values.
type OutputConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
}

func (o OutputConfig) empty() bool {
	return !o.Enabled && o.Level == "" && o.Format == ""
}

var (
	logLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	logFormats = map[string]bool{"text": true, "json": true}
)

// DefaultLoggingConfig returns default logging configuration
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:  "info",
		Format: "text",
		Dir:    "logs",
		Rotation: RotationConfig{
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     14,
			Compress:   true,
		},
		Console:      OutputConfig{Enabled: true, Level: "info", Format: "text"},
		File:         OutputConfig{Enabled: true, Level: "info", Format: "text"},
		RepeatWindow: 30 * time.Second,
	}
}

// ApplyDefaults fills in missing values with defaults.
// Compress stays false when unset: a zero bool cannot be told from an explicit false.
func (c *LoggingConfig) ApplyDefaults() {
	defaults := DefaultLoggingConfig()
	if c.Level == "" {
		c.Level = defaults.Level
	}
	if c.Format == "" {
		c.Format = defaults.Format
	}
	if c.Dir == "" {
		c.Dir = defaults.Dir
	}
	if c.Rotation.MaxSize == 0 {
		c.Rotation.MaxSize = defaults.Rotation.MaxSize
	}
	if c.Rotation.MaxBackups == 0 {
		c.Rotation.MaxBackups = defaults.Rotation.MaxBackups
	}
	if c.Rotation.MaxAge == 0 {
		c.Rotation.MaxAge = defaults.Rotation.MaxAge
	}

	for _, out := range []*OutputConfig{&c.Console, &c.File} {
		if out.empty() {
			out.Enabled = true
		}
		if out.Level == "" {
			out.Level = c.Level
		}
		if out.Format == "" {
			out.Format = c.Format
		}
	}
}

// ApplyEnvOverrides applies GEMEX_LOG_LEVEL to every output.
func (c *LoggingConfig) ApplyEnvOverrides() {
	val := strings.ToLower(os.Getenv("GEMEX_LOG_LEVEL"))
	if val == "" {
		return
	}
	c.Level = val
	c.Console.Level = val
	c.File.Level = val
}

// ResolvePaths resolves a relative log directory against dataDir.
func (c *LoggingConfig) ResolvePaths(_, dataDir string) {
	if c.Dir != "" && !filepath.IsAbs(c.Dir) {
		c.Dir = filepath.Clean(filepath.Join(dataDir, c.Dir))
	}
}

// Validate validates the configuration
func (c *LoggingConfig) Validate() error {
	if !logLevels[c.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	if !logFormats[c.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Format)
	}
	if c.Dir == "" {
		return fmt.Errorf("log directory cannot be empty")
	}
	if c.RepeatWindow < 0 {
		return fmt.Errorf("logging.repeat_window must not be negative")
	}

	outputs := []struct {
		name string
		cfg  OutputConfig
	}{{"console", c.Console}, {"file", c.File}}
	for _, out := range outputs {
		if !out.cfg.Enabled {
			continue
		}
		if out.cfg.Level != "" && !logLevels[out.cfg.Level] {
			return fmt.Errorf("invalid %s log level: %s", out.name, out.cfg.Level)
		}
		if out.cfg.Format != "" && !logFormats[out.cfg.Format] {
			return fmt.Errorf("invalid %s log format: %s", out.name, out.cfg.Format)
		}
	}
	return nil
}
