package logging_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"wordmill/internal/config"
	"wordmill/internal/logging"
)

func readLogFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(data)
}

func TestNewJSONWritesStandardKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "out.log")
	logger, err := logging.New(logging.Options{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("queue processed", "accepted", 3)

	line := strings.TrimSpace(readLogFile(t, logPath))
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		t.Fatalf("unmarshal %q: %v", line, err)
	}
	if record["msg"] != "queue processed" {
		t.Errorf("msg: got %v want %q", record["msg"], "queue processed")
	}
	if record["level"] != "info" {
		t.Errorf("level: got %v want %q", record["level"], "info")
	}
	ts, ok := record["ts"].(string)
	if !ok {
		t.Fatalf("ts missing from %q", line)
	}
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("ts %q not RFC3339: %v", ts, err)
	}
	if got, want := record["accepted"], float64(3); got != want {
		t.Errorf("accepted: got %v want %v", got, want)
	}
}

func TestNewPrettyRendersComponentPrefix(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "out.log")
	logger, err := logging.New(logging.Options{
		Level:       "info",
		Format:      "pretty",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("run started", "component", "pipeline", "entries", 4)

	line := strings.TrimSpace(readLogFile(t, logPath))
	if !strings.Contains(line, "INFO") {
		t.Errorf("missing level label in %q", line)
	}
	if !strings.Contains(line, "[pipeline] run started") {
		t.Errorf("missing component prefix in %q", line)
	}
	if !strings.Contains(line, "entries=4") {
		t.Errorf("missing field in %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Errorf("component should be a prefix, not a field, in %q", line)
	}
}

func TestNewPrettyQuotesAwkwardValues(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "out.log")
	logger, err := logging.New(logging.Options{
		Level:       "info",
		Format:      "pretty",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("card persisted", "word", "romantic date")

	line := strings.TrimSpace(readLogFile(t, logPath))
	if !strings.Contains(line, `word="romantic date"`) {
		t.Errorf("value with spaces should be quoted in %q", line)
	}
}

func TestNewHonorsLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "out.log")
	logger, err := logging.New(logging.Options{
		Level:       "warn",
		Format:      "json",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("should be suppressed")
	logger.Warn("kept")

	content := readLogFile(t, logPath)
	if strings.Contains(content, "should be suppressed") {
		t.Errorf("info record leaked past warn level: %q", content)
	}
	if !strings.Contains(content, "kept") {
		t.Errorf("warn record missing from %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs")
	cfg := config.Default()
	cfg.Paths.LogDir = logDir
	cfg.Logging.Format = "json"
	cfg.Logging.Level = "info"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	logger.Info("sync finished", "added", 2)

	content := readLogFile(t, filepath.Join(logDir, logging.LogFileName))
	if !strings.Contains(content, "sync finished") {
		t.Errorf("log file missing record: %q", content)
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	stale := filepath.Join(dir, "stale.log")
	fresh := filepath.Join(dir, "fresh.log")
	other := filepath.Join(dir, "notes.txt")
	for _, path := range []string{stale, fresh, other} {
		if err := os.WriteFile(path, []byte("x\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	staleTime := now.AddDate(0, 0, -30)
	if err := os.Chtimes(stale, staleTime, staleTime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	oldOther := now.AddDate(0, 0, -60)
	if err := os.Chtimes(other, oldOther, oldOther); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	removed, err := logging.CleanupOldLogs(dir, 14, now)
	if err != nil {
		t.Fatalf("CleanupOldLogs: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed: got %d want 1", removed)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale.log should be removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("fresh.log should survive: %v", err)
	}
	if _, err := os.Stat(other); err != nil {
		t.Errorf("non-log file should survive: %v", err)
	}
}

func TestCleanupOldLogsDisabled(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "stale.log")
	if err := os.WriteFile(stale, []byte("x\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	old := time.Now().AddDate(0, 0, -90)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	removed, err := logging.CleanupOldLogs(dir, 0, time.Now())
	if err != nil {
		t.Fatalf("CleanupOldLogs: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed: got %d want 0", removed)
	}
	if _, err := os.Stat(stale); err != nil {
		t.Errorf("file should survive when retention disabled: %v", err)
	}
}
