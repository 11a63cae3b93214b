package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newRouteCmd() *cobra.Command {
	var complexity int
	var direct bool

	cmd := &cobra.Command{
		Use:   "route <name>",
		Short: "Route a request payload to a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, surface, closeFleet := bootstrap()
			defer closeFleet()

			payload := map[string]interface{}{}
			if complexity > 0 {
				payload["complexity"] = complexity
			}
			if direct {
				payload["__direct_instance"] = true
			}

			body, _ := surface.Route(cmd.Context(), args[0], payload)
			return printJSON(body)
		},
	}

	cmd.Flags().IntVar(&complexity, "complexity", 0, "Relative request complexity")
	cmd.Flags().BoolVar(&direct, "direct", false, "Bypass replica selection and hit the named container directly")
	return cmd
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
