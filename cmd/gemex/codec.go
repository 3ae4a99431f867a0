package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gemexbase/gemex/internal/codec"
	"github.com/gemexbase/gemex/internal/filter"
)

func newDecodeCmd(opts *rootOptions) *cobra.Command {
	var canonical bool
	cmd := &cobra.Command{
		Use:     "decode <entity> <query>",
		Short:   "Decode a search URL query into a filter state",
		Example: "  gemex decode elements 'quantite_sup_eg=3&annee_creation=2021'",
		GroupID: "schema",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := opts.loadRegistry()
			if err != nil {
				return err
			}
			params, err := url.ParseQuery(strings.TrimPrefix(args[1], "?"))
			if err != nil {
				return fmt.Errorf("invalid query: %w", err)
			}

			c := codec.New(reg, cliLogger(cmd))
			state, err := filter.ApplyIncoming(c, args[0], params)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if canonical {
				query, err := c.Encode(state, params)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, query.Encode())
				return nil
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(state)
		},
	}
	cmd.Flags().BoolVar(&canonical, "canonical", false, "print the canonical re-encoded query instead of the state")
	return cmd
}

func newEncodeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "encode <entity> <filters.json>",
		Short: "Encode filter values into a search URL query",
		Long: `Encode reads a JSON object mapping field names to values ("-" reads
stdin). Every field listed is checked; <field>_operator keys set the
operator of ranged fields and the quick-search field is carried as is.`,
		Example: `  echo '{"quantite": 5, "quantite_operator": "<="}' | gemex encode elements -`,
		GroupID: "schema",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := opts.loadRegistry()
			if err != nil {
				return err
			}
			values, err := readFilters(cmd, args[1])
			if err != nil {
				return err
			}

			c := codec.New(reg, cliLogger(cmd))
			state, err := filter.BuildDefault(reg, args[0])
			if err != nil {
				return err
			}
			conf := state.Config()
			current := url.Values{}

			// Sorted so that errors are reported deterministically.
			keys := make([]string, 0, len(values))
			for k := range values {
				keys = append(keys, k)
			}
			slices.Sort(keys)

			for _, name := range keys {
				v := values[name]
				if name == conf.DefaultSearchParam && name != "" {
					current.Set(name, fmt.Sprint(v))
					continue
				}
				if state, err = state.Patch(name, v); err != nil {
					return err
				}
				if _, companion := conf.CompanionField(name); companion {
					continue
				}
				if state, err = state.Toggle(name, true); err != nil {
					return err
				}
			}

			query, err := c.Encode(state, current)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), query.Encode())
			return nil
		},
	}
}

func readFilters(cmd *cobra.Command, path string) (map[string]interface{}, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()
	var values map[string]interface{}
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("invalid filters file: %w", err)
	}
	return values, nil
}

// cliLogger reports decode ambiguities on stderr.
func cliLogger(cmd *cobra.Command) *slog.Logger {
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
}
