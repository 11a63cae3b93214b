package main

import "github.com/spf13/cobra"

func newPredictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "predict <name>",
		Short: "Fit a trend/volatility model over a container's recent samples",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, surface, closeFleet := bootstrap()
			defer closeFleet()

			body, _ := surface.Predict(args[0])
			return printJSON(body)
		},
	}
}
