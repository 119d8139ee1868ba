package logging

import (
	"os"
	"path/filepath"
	"time"
)

// CleanupOldLogs removes *.log files in dir whose modification time is
// older than retentionDays. A non-positive retention disables cleanup.
// It returns the number of files removed.
func CleanupOldLogs(dir string, retentionDays int, now time.Time) (int, error) {
	if retentionDays <= 0 || dir == "" {
		return 0, nil
	}

	cutoff := now.AddDate(0, 0, -retentionDays)
	matches, err := filepath.Glob(filepath.Join(dir, "*.log"))
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(path); err == nil {
			removed++
		}
	}
	return removed, nil
}
