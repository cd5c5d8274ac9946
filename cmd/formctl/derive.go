package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dlovans/formwright/pkg/form"
	"github.com/dlovans/formwright/pkg/render"
	"github.com/dlovans/formwright/pkg/validate"
)

func newDeriveCmd(a *app) *cobra.Command {
	var file, valuesFile string
	var sets []string
	var settle bool
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Compute derived fields for a value map",
		Long: `Runs the derived-field formulas against a value map seeded from the
schema defaults, --values and --set. Without --settle exactly one pass runs,
so chained fields advance one hop; with --settle passes repeat until nothing
changes or the configured pass bound is hit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := readSchema(cmd, file)
			if err != nil {
				return err
			}
			given, err := readValues(valuesFile, sets)
			if err != nil {
				return err
			}
			values := form.SeedValues(s.Fields)
			for id, v := range given {
				values[id] = v
			}

			e := a.engine()
			passes := 1
			if settle {
				var converged bool
				values, passes, converged = e.Settle(s.Fields, values, a.cfg.Preview.MaxPasses)
				if !converged {
					a.logger.Warn("derived values did not settle", zap.Int("passes", passes))
				}
			} else {
				for id, v := range e.Compute(s.Fields, values) {
					values[id] = v
				}
			}

			if a.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), values)
			}
			render.Values(cmd.OutOrStdout(), s.Fields, values, validate.All(s.Fields, values))
			fmt.Fprintf(cmd.OutOrStdout(), "passes: %d\n", passes)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "schema file (stdin if empty)")
	cmd.Flags().StringVar(&valuesFile, "values", "", "JSON object of field id to value")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "id=value, repeatable")
	cmd.Flags().BoolVar(&settle, "settle", false, "repeat passes until values stop changing")
	return cmd
}
