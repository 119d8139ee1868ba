package main

import (
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"wordmill/internal/logging"
	"wordmill/internal/pipeline"
)

type runSummaryJSON struct {
	RunID      string `json:"run_id"`
	DryRun     bool   `json:"dry_run"`
	Processed  int    `json:"processed"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	Persisted  int    `json:"persisted"`
	Synced     int    `json:"synced"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var limit int
	var deck string
	var noteModel string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one capture-to-flashcard pipeline pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			// With --json the summary owns stdout, so logs go to stderr.
			console := "stdout"
			if jsonOut {
				console = "stderr"
			}
			logPath := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
			logger, err := logging.New(logging.Options{
				Level:            cfg.Logging.Level,
				Format:           cfg.Logging.Format,
				OutputPaths:      []string{console, logPath},
				ErrorOutputPaths: []string{"stderr", logPath},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			if removed, err := logging.CleanupOldLogs(cfg.Paths.LogDir, cfg.Logging.RetentionDays, time.Now()); err != nil {
				logger.Warn("log cleanup failed", "error", err)
			} else if removed > 0 {
				logger.Debug("old logs removed", "count", removed)
			}

			lock := flock.New(filepath.Join(cfg.Paths.StateDir, "wordmill.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !locked {
				return errors.New("another wordmill run is already in progress")
			}
			defer func() {
				if err := lock.Unlock(); err != nil {
					logger.Warn("release run lock", "error", err)
				}
			}()

			runner := pipeline.New(cfg, logger)
			summary, runErr := runner.Run(signalCtx, pipeline.RunOptions{
				DryRun:    dryRun,
				Limit:     limit,
				Deck:      deck,
				NoteModel: noteModel,
			})

			if jsonOut {
				payload := runSummaryJSON{
					RunID:      summary.RunID,
					DryRun:     summary.DryRun,
					Processed:  summary.Processed,
					Skipped:    summary.Skipped,
					Failed:     summary.Failed,
					Persisted:  summary.Persisted,
					Synced:     summary.Synced,
					DurationMS: summary.Duration.Milliseconds(),
				}
				if runErr != nil {
					payload.Error = runErr.Error()
				}
				if err := writeJSON(cmd, payload); err != nil {
					return err
				}
				return runErr
			}

			stdout := cmd.OutOrStdout()
			if runErr != nil {
				if summary.Persisted > 0 {
					fmt.Fprintf(stdout, "Persisted %d cards before failure\n", summary.Persisted)
				}
				return runErr
			}

			switch {
			case summary.DryRun:
				fmt.Fprintf(stdout, "Dry run complete: %d cards would be persisted (processed %d, skipped %d, failed %d)\n",
					summary.Persisted, summary.Processed, summary.Skipped, summary.Failed)
			case summary.Processed == 0:
				fmt.Fprintln(stdout, "Nothing to do")
			default:
				fmt.Fprintf(stdout, "Persisted %d cards, synced %d (processed %d, skipped %d, failed %d) in %s\n",
					summary.Persisted, summary.Synced,
					summary.Processed, summary.Skipped, summary.Failed,
					summary.Duration.Round(time.Millisecond))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Enrich candidates without writing the store, snapshot, or sync target")
	cmd.Flags().IntVar(&limit, "limit", 0, "Cap the number of candidates enriched this run (0 = no cap)")
	cmd.Flags().StringVar(&deck, "deck", "", "Override the configured sync deck")
	cmd.Flags().StringVar(&noteModel, "note-model", "", "Override the configured sync note model")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the run summary as JSON")
	return cmd
}
