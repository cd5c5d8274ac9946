package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dlovans/formwright/pkg/render"
)

func newSaveCmd(a *app) *cobra.Command {
	var file, name string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Append a schema to the saved-form list",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := readSchema(cmd, file)
			if err != nil {
				return err
			}
			if name != "" {
				s.Name = name
			}
			if strings.TrimSpace(s.Name) == "" {
				return fmt.Errorf("form name is required (set formName or --name)")
			}
			for _, f := range s.Fields {
				if err := f.Check(); err != nil {
					return err
				}
			}

			g, kv, err := a.gateway()
			if err != nil {
				return err
			}
			defer kv.Close()

			rec, err := g.Save(contextOf(cmd), s.Name, s.Fields)
			if err != nil {
				return err
			}
			if a.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), rec)
			}
			fmt.Fprintln(cmd.OutOrStdout(), rec.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "schema file (stdin if empty)")
	cmd.Flags().StringVar(&name, "name", "", "form name (overrides formName)")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved forms",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, kv, err := a.gateway()
			if err != nil {
				return err
			}
			defer kv.Close()

			records, err := g.List(contextOf(cmd))
			if err != nil {
				return err
			}
			if a.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), records)
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved forms")
				return nil
			}
			render.Saved(cmd.OutOrStdout(), records)
			return nil
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the fields of a saved form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, kv, err := a.gateway()
			if err != nil {
				return err
			}
			defer kv.Close()

			rec, ok, err := g.Find(contextOf(cmd), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no saved form with id %q", args[0])
			}
			if a.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), rec)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", rec.FormName, rec.ID)
			render.Fields(cmd.OutOrStdout(), rec.Fields)
			return nil
		},
	}
}
