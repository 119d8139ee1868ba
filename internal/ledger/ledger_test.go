package ledger_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"wordmill/internal/ledger"
	"wordmill/internal/testsupport"
)

func TestRecordStartAndFinish(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	ctx := context.Background()
	started := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	if err := store.RecordStart(ctx, "run-1", started); err != nil {
		t.Fatalf("RecordStart: %v", err)
	}

	recent, err := store.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(recent) != 1 || recent[0].Status != ledger.StatusRunning {
		t.Fatalf("after start: got %+v", recent)
	}
	if !recent[0].FinishedAt.IsZero() {
		t.Errorf("finished_at set before finish: %v", recent[0].FinishedAt)
	}

	finished := started.Add(42 * time.Second)
	err = store.RecordFinish(ctx, ledger.RunRecord{
		RunID:      "run-1",
		StartedAt:  started,
		FinishedAt: finished,
		Status:     ledger.StatusCompleted,
		Processed:  4,
		Skipped:    2,
		Failed:     1,
		Persisted:  3,
		Synced:     3,
	})
	if err != nil {
		t.Fatalf("RecordFinish: %v", err)
	}

	recent, err = store.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns after finish: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("run count: got %d want 1", len(recent))
	}
	rec := recent[0]
	if rec.Status != ledger.StatusCompleted {
		t.Errorf("status: got %q", rec.Status)
	}
	if !rec.StartedAt.Equal(started) || !rec.FinishedAt.Equal(finished) {
		t.Errorf("timestamps: got %v / %v", rec.StartedAt, rec.FinishedAt)
	}
	if rec.Processed != 4 || rec.Skipped != 2 || rec.Failed != 1 || rec.Persisted != 3 || rec.Synced != 3 {
		t.Errorf("counters: got %+v", rec)
	}
	if rec.ErrorMessage != "" {
		t.Errorf("error message: got %q", rec.ErrorMessage)
	}
}

func TestRecordFinishWithoutStartInsertsRow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	ctx := context.Background()
	err := store.RecordFinish(ctx, ledger.RunRecord{
		RunID:        "orphan",
		Status:       ledger.StatusFailed,
		ErrorMessage: "enrichment failed for every word",
	})
	if err != nil {
		t.Fatalf("RecordFinish: %v", err)
	}

	recent, err := store.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(recent) != 1 || recent[0].RunID != "orphan" {
		t.Fatalf("runs: got %+v", recent)
	}
	if recent[0].Status != ledger.StatusFailed || recent[0].ErrorMessage == "" {
		t.Errorf("record: got %+v", recent[0])
	}
}

func TestRecentRunsNewestFirstWithLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	ctx := context.Background()
	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	for i, runID := range []string{"run-a", "run-b", "run-c"} {
		if err := store.RecordStart(ctx, runID, base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("RecordStart %s: %v", runID, err)
		}
	}

	recent, err := store.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(recent) != 2 || recent[0].RunID != "run-c" || recent[1].RunID != "run-b" {
		t.Fatalf("order: got %+v", recent)
	}
}

func TestRunsOnFiltersByCalendarDay(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	ctx := context.Background()
	if err := store.RecordStart(ctx, "yesterday", time.Date(2026, 3, 13, 23, 50, 0, 0, time.UTC)); err != nil {
		t.Fatalf("RecordStart: %v", err)
	}
	if err := store.RecordStart(ctx, "today-early", time.Date(2026, 3, 14, 0, 5, 0, 0, time.UTC)); err != nil {
		t.Fatalf("RecordStart: %v", err)
	}
	if err := store.RecordStart(ctx, "today-late", time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("RecordStart: %v", err)
	}

	runs, err := store.RunsOn(ctx, time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("RunsOn: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs on day: got %+v", runs)
	}
	if runs[0].RunID != "today-late" || runs[1].RunID != "today-early" {
		t.Errorf("order: got %q then %q", runs[0].RunID, runs[1].RunID)
	}
}

func TestTotalsAggregateAcrossRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	ctx := context.Background()
	for i, rec := range []ledger.RunRecord{
		{RunID: "t-1", Status: ledger.StatusCompleted, Persisted: 3, Synced: 2},
		{RunID: "t-2", Status: ledger.StatusCompleted, Persisted: 5, Synced: 5},
		{RunID: "t-3", Status: ledger.StatusNoop},
	} {
		rec.StartedAt = time.Date(2026, 3, 14, 8+i, 0, 0, 0, time.UTC)
		rec.FinishedAt = rec.StartedAt.Add(time.Minute)
		if err := store.RecordFinish(ctx, rec); err != nil {
			t.Fatalf("RecordFinish %s: %v", rec.RunID, err)
		}
	}

	totals, err := store.Totals(ctx)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if totals.Runs != 3 || totals.Persisted != 8 || totals.Synced != 7 {
		t.Errorf("totals: got %+v", totals)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	store, err := ledger.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump schema version: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close raw db: %v", err)
	}

	if _, err := ledger.Open(path); !errors.Is(err, ledger.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := ledger.Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestRecordStartRequiresRunID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	if err := store.RecordStart(context.Background(), "", time.Now()); err == nil {
		t.Fatal("expected error for empty run id")
	}
}
