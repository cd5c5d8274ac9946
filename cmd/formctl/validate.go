package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dlovans/formwright/pkg/form"
	"github.com/dlovans/formwright/pkg/validate"
)

func newValidateCmd(a *app) *cobra.Command {
	var file, valuesFile string
	var sets []string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a value map against the schema's validation rules",
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

			all := validate.All(s.Fields, values)
			out := cmd.OutOrStdout()
			if a.jsonOutput() {
				if err := writeJSON(out, all); err != nil {
					return err
				}
			}

			count := 0
			for _, f := range s.Fields {
				for _, msg := range all[f.ID] {
					count++
					if !a.jsonOutput() {
						fmt.Fprintf(out, "✗ %s\n", msg)
					}
				}
			}
			if count > 0 {
				return fmt.Errorf("validate: %d violation(s): %w", count, errCheckFailed)
			}
			if !a.jsonOutput() {
				fmt.Fprintln(out, "✓ All fields valid")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "schema file (stdin if empty)")
	cmd.Flags().StringVar(&valuesFile, "values", "", "JSON object of field id to value")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "id=value, repeatable")
	return cmd
}
