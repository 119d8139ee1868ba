package main

import (
	"fmt"
	"time"

	"wordmill/internal/ledger"
)

type runRecordJSON struct {
	RunID      string `json:"run_id"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
	Status     string `json:"status"`
	Processed  int    `json:"processed"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	Persisted  int    `json:"persisted"`
	Synced     int    `json:"synced"`
	Error      string `json:"error,omitempty"`
}

func runRecordPayload(rec ledger.RunRecord) runRecordJSON {
	payload := runRecordJSON{
		RunID:     rec.RunID,
		StartedAt: rec.StartedAt.Format(time.RFC3339),
		Status:    string(rec.Status),
		Processed: rec.Processed,
		Skipped:   rec.Skipped,
		Failed:    rec.Failed,
		Persisted: rec.Persisted,
		Synced:    rec.Synced,
		Error:     rec.ErrorMessage,
	}
	if !rec.FinishedAt.IsZero() {
		payload.FinishedAt = rec.FinishedAt.Format(time.RFC3339)
	}
	return payload
}

var runTableHeaders = []string{"Started", "Status", "Processed", "Skipped", "Failed", "Persisted", "Synced", "Duration"}

var runTableAligns = []columnAlignment{
	alignLeft, alignLeft,
	alignRight, alignRight, alignRight, alignRight, alignRight,
	alignRight,
}

func runTableRows(records []ledger.RunRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		duration := "-"
		if !rec.FinishedAt.IsZero() {
			duration = rec.FinishedAt.Sub(rec.StartedAt).Round(time.Second).String()
		}
		rows = append(rows, []string{
			rec.StartedAt.Local().Format("2006-01-02 15:04:05"),
			string(rec.Status),
			fmt.Sprintf("%d", rec.Processed),
			fmt.Sprintf("%d", rec.Skipped),
			fmt.Sprintf("%d", rec.Failed),
			fmt.Sprintf("%d", rec.Persisted),
			fmt.Sprintf("%d", rec.Synced),
			duration,
		})
	}
	return rows
}
