package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wordmill/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var live bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run environment preflight checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			results := preflight.RunAll(cmd.Context(), cfg, live)

			for _, line := range renderSectionHeader("Preflight Checks", colorize) {
				fmt.Fprintln(stdout, line)
			}
			failed := 0
			for _, result := range results {
				kind := statusOK
				if !result.Passed {
					kind = statusError
					failed++
				}
				fmt.Fprintln(stdout, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			fmt.Fprintln(stdout)

			if failed > 0 {
				return fmt.Errorf("%d of %d checks failed", failed, len(results))
			}
			fmt.Fprintf(stdout, "All %d checks passed\n", len(results))
			return nil
		},
	}

	cmd.Flags().BoolVar(&live, "live", false, "Also send a minimal enrichment request (costs a few tokens)")
	return cmd
}
