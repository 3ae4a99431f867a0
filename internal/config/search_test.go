package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchConfig_ApplyDefaults(t *testing.T) {
	var cfg SearchConfig
	cfg.ApplyDefaults()

	assert.Equal(t, DefaultSearchConfig(), cfg)
}

func TestSearchConfig_ResolvePaths(t *testing.T) {
	cfg := SearchConfig{SchemaFile: "schema.yml"}
	cfg.ResolvePaths("/etc/gemex", "/var/lib/gemex")
	assert.Equal(t, "/etc/gemex/schema.yml", cfg.SchemaFile)

	cfg = SearchConfig{}
	cfg.ResolvePaths("/etc/gemex", "/var/lib/gemex")
	assert.Empty(t, cfg.SchemaFile)
}

func TestSearchConfig_Validate(t *testing.T) {
	cfg := DefaultSearchConfig()
	assert.NoError(t, cfg.Validate())

	cfg.DefaultPageSize = 0
	assert.ErrorContains(t, cfg.Validate(), "default_page_size")

	cfg = DefaultSearchConfig()
	cfg.MaxPageSize = 10
	assert.ErrorContains(t, cfg.Validate(), "max_page_size")

	cfg = DefaultSearchConfig()
	cfg.Resolver.Concurrency = -1
	assert.ErrorContains(t, cfg.Validate(), "resolver_concurrency")
}
