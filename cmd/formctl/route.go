package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dlovans/formwright/pkg/route"
)

func newRouteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "route <path>",
		Short: "Resolve an application path to its view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := route.Resolve(args[0])
			if a.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), struct {
					View     route.View `json:"view"`
					SchemaID string     `json:"schemaId,omitempty"`
					Path     string     `json:"path"`
					Redirect bool       `json:"redirect"`
				}{r.View, r.SchemaID, route.Path(r), r.Redirect})
			}
			line := fmt.Sprintf("%s %s", r.View, route.Path(r))
			if r.SchemaID != "" {
				line += " id=" + r.SchemaID
			}
			if r.Redirect {
				line += " (redirect)"
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
			return nil
		},
	}
}
