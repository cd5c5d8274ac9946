package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dlovans/formwright/pkg/lint"
)

func newLintCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Statically check a schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := readSchema(cmd, file)
			if err != nil {
				return err
			}
			result := lint.Check(s)
			out := cmd.OutOrStdout()

			if a.jsonOutput() {
				if err := writeJSON(out, result); err != nil {
					return err
				}
			} else if len(result.Issues) == 0 {
				fmt.Fprintln(out, "✓ No issues found")
			} else {
				for _, issue := range result.Issues {
					icon := "⚠"
					if issue.Severity == "error" {
						icon = "✗"
					}
					location := ""
					if issue.Field != "" {
						location = fmt.Sprintf(" [field: %s]", issue.Field)
					}
					if issue.Rule != "" {
						location += fmt.Sprintf(" [rule: %s]", issue.Rule)
					}
					fmt.Fprintf(out, "%s %s%s: %s\n", icon, issue.Severity, location, issue.Message)
				}
			}

			if !result.Valid {
				return fmt.Errorf("lint: %d error(s): %w", len(result.Errors()), errCheckFailed)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "schema file (JSON or YAML; stdin if empty)")
	return cmd
}
