package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wordmill/internal/config"
	"wordmill/internal/inbox"
	"wordmill/internal/ledger"
	"wordmill/internal/preflight"
	"wordmill/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, queue, and service status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Configuration", colorize) {
				fmt.Fprintln(stdout, line)
			}
			configSource := ctx.configPath
			if !ctx.configExists {
				configSource = fmt.Sprintf("%s (not found, defaults in effect)", ctx.configPath)
			}
			fmt.Fprintln(stdout, renderPlainLine("Config file", configSource))
			fmt.Fprintln(stdout, renderPlainLine("Store backend", describeBackend(cmd, cfg)))
			if cfg.Store.Backend == store.BackendSheets {
				fmt.Fprintln(stdout, renderPlainLine("Spreadsheet", cfg.Store.SpreadsheetID))
			} else {
				fmt.Fprintln(stdout, renderPlainLine("Store file", cfg.Paths.StoreFile))
			}
			fmt.Fprintln(stdout, renderPlainLine("Language tag", cfg.Cards.LanguageTag))
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Queue", colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout, renderPlainLine("Queue file", cfg.Paths.QueueFile))
			fmt.Fprintln(stdout, renderPlainLine("Pending entries", describeQueue(cfg.Paths.QueueFile)))
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Services", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, result := range []preflight.Result{
				preflight.CheckEnrichmentFromConfig(cfg),
				preflight.CheckSyncFromConfig(cfg),
				preflight.CheckNotificationsFromConfig(cfg),
			} {
				fmt.Fprintln(stdout, renderStatusLine(result.Name, statusKindForResult(result), result.Detail, colorize))
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Totals", colorize) {
				fmt.Fprintln(stdout, line)
			}
			led, err := ledger.OpenFromConfig(cfg)
			if err != nil {
				fmt.Fprintln(stdout, renderStatusLine("Run ledger", statusWarn, err.Error(), colorize))
				return nil
			}
			defer led.Close()
			totals, err := led.Totals(cmd.Context())
			if err != nil {
				fmt.Fprintln(stdout, renderStatusLine("Run ledger", statusWarn, err.Error(), colorize))
				return nil
			}
			fmt.Fprintln(stdout, renderPlainLine("Runs recorded", fmt.Sprintf("%d", totals.Runs)))
			fmt.Fprintln(stdout, renderPlainLine("Cards persisted", fmt.Sprintf("%d", totals.Persisted)))
			fmt.Fprintln(stdout, renderPlainLine("Notes synced", fmt.Sprintf("%d", totals.Synced)))
			return nil
		},
	}
}

func statusKindForResult(result preflight.Result) statusKind {
	if result.Passed {
		return statusOK
	}
	return statusError
}

// describeBackend annotates the csv backend with its detected column format.
func describeBackend(cmd *cobra.Command, cfg *config.Config) string {
	if cfg.Store.Backend == store.BackendSheets {
		return store.BackendSheets
	}
	st, err := store.New(cmd.Context(), store.Config{
		Backend: store.BackendCSV,
		Path:    cfg.Paths.StoreFile,
	})
	if err != nil {
		return fmt.Sprintf("csv (unreadable: %v)", err)
	}
	return fmt.Sprintf("csv (%s format)", st.Format())
}

func describeQueue(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "none (queue file missing)"
	}
	entries, err := inbox.ReadEntries(path)
	if err != nil {
		return fmt.Sprintf("unreadable (%v)", err)
	}
	if len(entries) == 0 {
		return "none"
	}
	return fmt.Sprintf("%d", len(entries))
}
