package preflight

import (
	"context"
	"strings"

	"wordmill/internal/config"
)

// CheckSyncFromConfig evaluates sync status from config and connectivity.
func CheckSyncFromConfig(cfg *config.Config) Result {
	const name = "Sync"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.Sync.Enabled {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	if strings.TrimSpace(cfg.Sync.URL) == "" {
		return Result{Name: name, Detail: "Missing URL"}
	}
	return CheckSync(context.Background(), cfg)
}

// CheckNotificationsFromConfig reports whether ntfy notifications are
// configured. There is no connectivity probe; a check would publish to the
// topic, and subscribers would see it.
func CheckNotificationsFromConfig(cfg *config.Config) Result {
	const name = "Notifications"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	return Result{Name: name, Passed: true, Detail: topic}
}

// CheckEnrichmentFromConfig reports enrichment credential presence without a
// live probe.
func CheckEnrichmentFromConfig(cfg *config.Config) Result {
	const name = "Enrichment"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.Enrichment.APIKey) == "" {
		return Result{Name: name, Detail: "Missing API key"}
	}
	return Result{Name: name, Passed: true, Detail: cfg.Enrichment.Model}
}
