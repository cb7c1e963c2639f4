package main

import (
	"github.com/spf13/cobra"

	"aegis/internal/report"
)

func newStatsCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show scan counters and system health",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.Engine.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return report.New(cmd.OutOrStdout(), asJSON).Stats(stats)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}
