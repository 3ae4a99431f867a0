package config

// ServiceConfig defines the configuration lifecycle every section follows.
type ServiceConfig interface {
	// ApplyDefaults fills zero values with defaults
	ApplyDefaults()

	// ApplyEnvOverrides applies GEMEX_* environment variable overrides
	ApplyEnvOverrides()

	// ResolvePaths resolves relative paths.
	// - configDir: base directory for config files (schema_file)
	// - dataDir: base directory for runtime data (logs)
	ResolvePaths(configDir, dataDir string)

	// Validate returns an error if the section is invalid.
	Validate() error
}

// ApplyServiceConfigs runs ApplyDefaults, ApplyEnvOverrides, ResolvePaths and
// Validate on each section in order, stopping at the first invalid one.
func ApplyServiceConfigs(configDir, dataDir string, configs ...ServiceConfig) error {
	for _, cfg := range configs {
		cfg.ApplyDefaults()
		cfg.ApplyEnvOverrides()
		cfg.ResolvePaths(configDir, dataDir)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	return nil
}
