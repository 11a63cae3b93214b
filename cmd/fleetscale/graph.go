package main

import "github.com/spf13/cobra"

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Inspect the container dependency graph",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "export",
			Short: "Export the dependency graph as nodes and links",
			RunE: func(cmd *cobra.Command, args []string) error {
				_, surface, closeFleet := bootstrap()
				defer closeFleet()
				body, _ := surface.GraphExport()
				return printJSON(body)
			},
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Compute summary statistics over the dependency graph",
			RunE: func(cmd *cobra.Command, args []string) error {
				_, surface, closeFleet := bootstrap()
				defer closeFleet()
				body, _ := surface.GraphStats()
				return printJSON(body)
			},
		},
	)

	return cmd
}
