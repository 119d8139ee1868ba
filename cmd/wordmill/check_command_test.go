package main

import (
	"strings"
	"testing"

	"wordmill/internal/config"
)

func TestCheckPassesWithoutLiveProbe(t *testing.T) {
	env := setupCLITestEnv(t, func(cfg *config.Config) {
		cfg.Sync.Enabled = false
	})

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	requireContains(t, out, "Preflight Checks")
	requireContains(t, out, "checks passed")
	requireContains(t, out, "pass --live to probe")
}

func TestCheckFailsWhenAPIKeyMissing(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	env := setupCLITestEnv(t, func(cfg *config.Config) {
		cfg.Sync.Enabled = false
		cfg.Enrichment.APIKey = ""
	})

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "checks failed") {
		t.Fatalf("expected check failure, got %v", err)
	}
	requireContains(t, out, "[ERROR] API key missing")
}
