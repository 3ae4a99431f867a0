package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gemexbase/gemex/internal/metadata"
)

// SearchConfig holds the search engine settings.
type SearchConfig struct {
	// SchemaFile replaces the embedded search schema when set.
	SchemaFile      string `yaml:"schema_file"`
	DefaultPageSize int    `yaml:"default_page_size"`
	MaxPageSize     int    `yaml:"max_page_size"`

	Resolver metadata.Config `yaml:",inline"`
}

// DefaultSearchConfig returns default search settings.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		DefaultPageSize: 20,
		MaxPageSize:     200,
		Resolver:        metadata.DefaultConfig(),
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *SearchConfig) ApplyDefaults() {
	defaults := DefaultSearchConfig()
	if c.DefaultPageSize == 0 {
		c.DefaultPageSize = defaults.DefaultPageSize
	}
	if c.MaxPageSize == 0 {
		c.MaxPageSize = defaults.MaxPageSize
	}
	if c.Resolver.Concurrency == 0 {
		c.Resolver.Concurrency = defaults.Resolver.Concurrency
	}
	if c.Resolver.Cache.Size == 0 {
		c.Resolver.Cache.Size = defaults.Resolver.Cache.Size
	}
	if c.Resolver.Cache.TTL == 0 {
		c.Resolver.Cache.TTL = defaults.Resolver.Cache.TTL
	}
	if c.Resolver.Cache.NegativeTTL == 0 {
		c.Resolver.Cache.NegativeTTL = defaults.Resolver.Cache.NegativeTTL
	}
}

// ApplyEnvOverrides applies GEMEX_SCHEMA_FILE.
func (c *SearchConfig) ApplyEnvOverrides() {
	if val := os.Getenv("GEMEX_SCHEMA_FILE"); val != "" {
		c.SchemaFile = val
	}
}

// ResolvePaths resolves a relative schema file against configDir.
func (c *SearchConfig) ResolvePaths(configDir, _ string) {
	if c.SchemaFile != "" && !filepath.IsAbs(c.SchemaFile) {
		c.SchemaFile = filepath.Join(configDir, c.SchemaFile)
	}
}

// Validate returns an error if the configuration is invalid.
func (c *SearchConfig) Validate() error {
	if c.DefaultPageSize <= 0 {
		return fmt.Errorf("search.default_page_size must be positive")
	}
	if c.MaxPageSize < c.DefaultPageSize {
		return fmt.Errorf("search.max_page_size (%d) must be >= default_page_size (%d)", c.MaxPageSize, c.DefaultPageSize)
	}
	if c.Resolver.Concurrency <= 0 {
		return fmt.Errorf("search.resolver_concurrency must be positive")
	}
	return nil
}
