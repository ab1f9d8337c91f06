package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docpress/internal/services/docgen"
)

func newTemplatesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the built-in document templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			templates := docgen.Templates()
			if ctx.jsonOutput() {
				return writeJSON(cmd, templates)
			}

			rows := make([][]string, 0, len(templates))
			for _, tmpl := range templates {
				name := tmpl.Name
				if name == docgen.DefaultTemplate {
					name += " (default)"
				}
				rows = append(rows, []string{name, tmpl.DefaultWatermark, tmpl.Description})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Template", "Watermark", "Description"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
