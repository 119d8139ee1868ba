package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"wordmill/internal/card"
	"wordmill/internal/ledger"
	"wordmill/internal/store"
)

type cardJSON struct {
	WordEN     string `json:"word_en"`
	WordPT     string `json:"word_pt"`
	SentencePT string `json:"sentence_pt"`
	SentenceEN string `json:"sentence_en"`
	DateAdded  string `json:"date_added"`
}

type todayReportJSON struct {
	Date  string          `json:"date"`
	Cards []cardJSON      `json:"cards"`
	Runs  []runRecordJSON `json:"runs"`
}

func newTodayCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show cards persisted today and today's runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			now := time.Now()
			today := now.Format("2006-01-02")

			st, err := store.New(cmd.Context(), store.Config{
				Backend:         cfg.Store.Backend,
				Path:            cfg.Paths.StoreFile,
				SpreadsheetID:   cfg.Store.SpreadsheetID,
				Worksheet:       cfg.Store.Worksheet,
				CredentialsFile: cfg.Store.CredentialsFile,
			})
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			all, err := st.Cards(cmd.Context())
			if err != nil {
				return fmt.Errorf("read store: %w", err)
			}
			var cards []card.Card
			for _, c := range all {
				if c.DateAdded == today {
					cards = append(cards, c)
				}
			}

			led, err := ledger.OpenFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("open run ledger: %w", err)
			}
			defer led.Close()
			runs, err := led.RunsOn(cmd.Context(), now)
			if err != nil {
				return err
			}

			if jsonOut {
				payload := todayReportJSON{Date: today, Cards: []cardJSON{}, Runs: []runRecordJSON{}}
				for _, c := range cards {
					payload.Cards = append(payload.Cards, cardJSON{
						WordEN:     c.WordEN,
						WordPT:     c.WordPT,
						SentencePT: c.SentencePT,
						SentenceEN: c.SentenceEN,
						DateAdded:  c.DateAdded,
					})
				}
				for _, rec := range runs {
					payload.Runs = append(payload.Runs, runRecordPayload(rec))
				}
				return writeJSON(cmd, payload)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Cards Added Today", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if len(cards) == 0 {
				fmt.Fprintln(stdout, "No cards persisted today")
			} else {
				rows := make([][]string, 0, len(cards))
				for _, c := range cards {
					rows = append(rows, []string{c.WordEN, c.WordPT, truncate(c.SentencePT, 60)})
				}
				table := renderTable(
					[]string{"Word (EN)", "Word (PT)", "Sentence (PT)"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(stdout, table)
			}

			fmt.Fprintln(stdout)
			for _, line := range renderSectionHeader("Runs Today", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if len(runs) == 0 {
				fmt.Fprintln(stdout, "No runs recorded today")
				return nil
			}
			fmt.Fprintln(stdout, renderTable(runTableHeaders, runTableRows(runs), runTableAligns))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the report as JSON")
	return cmd
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 1 {
		return "…"
	}
	return string(runes[:n-1]) + "…"
}
