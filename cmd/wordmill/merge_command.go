package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"wordmill/internal/inbox"
)

func newMergeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "merge",
		Short: "Merge capture fragments into the canonical queue file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()

			merged, err := inbox.Merge(cfg.Paths.InboxDir, cfg.Paths.QueueFile, time.Now())
			if err != nil {
				return fmt.Errorf("merge capture fragments: %w", err)
			}

			stdout := cmd.OutOrStdout()
			if merged == 0 {
				fmt.Fprintln(stdout, "No capture fragments to merge")
				return nil
			}
			fmt.Fprintf(stdout, "Merged %d capture fragments into %s\n", merged, cfg.Paths.QueueFile)
			return nil
		},
	}
}
