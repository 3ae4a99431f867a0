package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newSchemaCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "schema [entity]",
		Short:   "List entity types, or describe the fields of one",
		GroupID: "schema",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := opts.loadRegistry()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				for _, name := range reg.Entities() {
					fmt.Fprintln(out, name)
				}
				return nil
			}

			conf, err := reg.Entity(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(conf.Describe())
		},
	}
}
