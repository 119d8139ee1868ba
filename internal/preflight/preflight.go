package preflight

import (
	"context"
	"strings"

	"wordmill/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled. The live
// flag additionally sends a minimal completion through the enrichment API,
// which costs a few tokens; without it the enrichment check stops at
// credential presence.
func RunAll(ctx context.Context, cfg *config.Config, live bool) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// State directory (always checked)
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))

	// Inbox directory (when configured)
	if cfg.Paths.InboxDir != "" {
		results = append(results, CheckDirectoryAccess("Inbox directory", cfg.Paths.InboxDir))
	}

	// Persistence backend
	results = append(results, CheckStore(cfg))

	// Enrichment API
	results = append(results, CheckEnrichment(ctx, cfg, live))

	// Flashcard application
	if cfg.Sync.Enabled {
		results = append(results, CheckSync(ctx, cfg))
		if strings.TrimSpace(cfg.Sync.LaunchCommand) != "" {
			results = append(results, CheckLaunchCommand(cfg.Sync.LaunchCommand))
		}
	}

	return results
}
