package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gemexbase/gemex/internal/config"
	"github.com/gemexbase/gemex/internal/searchconf"
	"github.com/gemexbase/gemex/internal/services"
)

type rootOptions struct {
	configDir  string
	schemaFile string
}

// loadRegistry returns the schema named by --schema, else the one named by
// the configuration, else the embedded one.
func (o *rootOptions) loadRegistry() (*searchconf.Registry, error) {
	file := o.schemaFile
	if file == "" {
		cfg, err := config.LoadConfig(o.configDir)
		if err != nil {
			return nil, err
		}
		file = cfg.Search.SchemaFile
	}
	return services.LoadRegistry(file)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "gemex <command>",
		Short:         "GEMEX search filter service",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&opts.configDir, "config-dir", defaultConfigDir(), "directory holding config.yml and config.local.yml")
	root.PersistentFlags().StringVar(&opts.schemaFile, "schema", "", "search schema file (default: embedded schema)")

	root.AddGroup(
		&cobra.Group{ID: "server", Title: "Server:"},
		&cobra.Group{ID: "schema", Title: "Search schema:"},
	)
	cobra.EnableCommandSorting = false

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newSchemaCmd(opts))
	root.AddCommand(newDecodeCmd(opts))
	root.AddCommand(newEncodeCmd(opts))
	return root
}

func defaultConfigDir() string {
	if s := os.Getenv("GEMEX_CONFIG_DIR"); s != "" {
		return s
	}
	return "config"
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
