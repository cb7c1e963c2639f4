package main

import (
	"github.com/spf13/cobra"

	"aegis/internal/models"
	"aegis/internal/report"
	"aegis/internal/storage"
)

func newHistoryCmd(opts *globalOptions) *cobra.Command {
	var (
		limit  int
		status string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent scans, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			if !cmd.Flags().Changed("limit") {
				limit = a.Config.HistoryLimit
			}

			entries, err := a.Engine.ListHistory(cmd.Context(), storage.ListHistoryParams{
				Status: models.Status(status),
				Limit:  storage.ClampLimit(limit),
			})
			if err != nil {
				return err
			}
			return report.New(cmd.OutOrStdout(), asJSON).History(entries)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&limit, "limit", "n", storage.DefaultHistoryLimit, "Number of entries")
	f.StringVar(&status, "status", "", "Only show Safe, Suspicious or Malicious entries")
	f.BoolVar(&asJSON, "json", false, "Print one JSON object per entry")
	return cmd
}
