package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wordmill/internal/notify"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			stdout := cmd.OutOrStdout()

			if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
				fmt.Fprintln(stdout, "Notifications are not configured (set notifications.ntfy_topic)")
				return nil
			}

			svc := notify.NewService(cfg)
			if err := svc.TestNotification(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Test notification sent")
			return nil
		},
	}
}
