package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newVerifyCmd(a *app) *cobra.Command {
	var file, valuesFile string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that a submitted value map is settled",
		Long: `Re-runs every derived formula over a submitted value map and reports
derived values that were not produced by their formulas, e.g. because they
were edited by hand or submitted before the preview settled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if valuesFile == "" {
				return errors.New("--values is required")
			}
			s, err := readSchema(cmd, file)
			if err != nil {
				return err
			}
			values, err := readValues(valuesFile, nil)
			if err != nil {
				return err
			}

			mismatches := a.engine().Verify(s.Fields, values)
			out := cmd.OutOrStdout()
			if a.jsonOutput() {
				if err := writeJSON(out, mismatches); err != nil {
					return err
				}
			} else if len(mismatches) == 0 {
				fmt.Fprintln(out, "✓ Values verified: every derived field matches its formula")
			} else {
				for _, m := range mismatches {
					fmt.Fprintf(out, "✗ %s: stored %q, formula gives %q\n", m.FieldID, m.Stored, m.Computed)
				}
			}
			if len(mismatches) > 0 {
				return fmt.Errorf("verify: %d mismatch(es): %w", len(mismatches), errCheckFailed)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "schema file (stdin if empty)")
	cmd.Flags().StringVar(&valuesFile, "values", "", "submitted JSON value map")
	return cmd
}
