package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wordmill/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()

			led, err := ledger.OpenFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("open run ledger: %w", err)
			}
			defer led.Close()

			runs, err := led.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if jsonOut {
				payload := make([]runRecordJSON, 0, len(runs))
				for _, rec := range runs {
					payload = append(payload, runRecordPayload(rec))
				}
				return writeJSON(cmd, payload)
			}

			stdout := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(stdout, "No runs recorded")
				return nil
			}
			fmt.Fprintln(stdout, renderTable(runTableHeaders, runTableRows(runs), runTableAligns))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the history as JSON")
	return cmd
}
