package preflight

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wordmill/internal/store"
	"wordmill/internal/testsupport"
)

func newVersionServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"result": 6, "error": null}`)
	}))
}

func newEnrichmentServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}]}`)
	}))
}

func writeStubBinary(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "launcher")
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckEnrichment_MissingKey(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Enrichment.APIKey = ""

	result := CheckEnrichment(context.Background(), cfg, false)
	if result.Passed {
		t.Fatal("expected failure for missing key")
	}
}

func TestCheckEnrichment_OfflineStopsAtKey(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	result := CheckEnrichment(context.Background(), cfg, false)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "--live") {
		t.Errorf("offline detail should mention --live, got: %s", result.Detail)
	}
}

func TestCheckEnrichment_Live(t *testing.T) {
	srv := newEnrichmentServer(t)
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithEnrichmentBaseURL(srv.URL))
	result := CheckEnrichment(context.Background(), cfg, true)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckEnrichment_LiveFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithEnrichmentBaseURL(srv.URL))
	result := CheckEnrichment(context.Background(), cfg, true)
	if result.Passed {
		t.Fatal("expected failure for rejected key")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckSync_OK(t *testing.T) {
	srv := newVersionServer(t)
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithSyncURL(srv.URL))
	result := CheckSync(context.Background(), cfg)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "protocol 6") {
		t.Errorf("detail should report protocol version, got: %s", result.Detail)
	}
}

func TestCheckSync_Unreachable(t *testing.T) {
	srv := newVersionServer(t)
	srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithSyncURL(srv.URL))
	result := CheckSync(context.Background(), cfg)
	if result.Passed {
		t.Fatal("expected failure for closed endpoint")
	}
}

func TestCheckLaunchCommand_Resolves(t *testing.T) {
	stub := writeStubBinary(t)
	result := CheckLaunchCommand(stub + " --minimized")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckLaunchCommand_Missing(t *testing.T) {
	result := CheckLaunchCommand("clearly-not-present-binary")
	if result.Passed {
		t.Fatal("expected failure for missing binary")
	}
	if result.Detail == "" {
		t.Fatal("expected detail message for missing binary")
	}
}

func TestCheckStore_CSVUsesStoreDirectory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	result := CheckStore(cfg)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckStore_SheetsNeedsCredentials(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStoreBackend(store.BackendSheets))
	cfg.Store.CredentialsFile = filepath.Join(testsupport.BaseDir(cfg), "missing.json")

	result := CheckStore(cfg)
	if result.Passed {
		t.Fatal("expected failure for missing credentials file")
	}

	testsupport.WriteFile(t, cfg.Store.CredentialsFile, "{}")
	result = CheckStore(cfg)
	if !result.Passed {
		t.Fatalf("expected pass once credentials exist, got: %s", result.Detail)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil, false)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSyncDisabled())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), cfg, false)
	// State dir, inbox dir, store dir, enrichment credentials
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
}

func TestRunAll_IncludesSyncWhenEnabled(t *testing.T) {
	srv := newVersionServer(t)
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithSyncURL(srv.URL))
	cfg.Sync.LaunchCommand = writeStubBinary(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), cfg, false)
	var foundSync, foundLaunch bool
	for _, r := range results {
		switch r.Name {
		case "Sync":
			foundSync = true
			if !r.Passed {
				t.Errorf("sync check failed: %s", r.Detail)
			}
		case "Launch command":
			foundLaunch = true
			if !r.Passed {
				t.Errorf("launch command check failed: %s", r.Detail)
			}
		}
	}
	if !foundSync {
		t.Fatal("expected sync check in results")
	}
	if !foundLaunch {
		t.Fatal("expected launch command check in results")
	}
}

func TestCheckSyncFromConfig_Disabled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSyncDisabled())
	result := CheckSyncFromConfig(cfg)
	if !result.Passed || result.Detail != "Disabled" {
		t.Fatalf("expected disabled pass, got %+v", result)
	}
}

func TestCheckNotificationsFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	result := CheckNotificationsFromConfig(cfg)
	if !result.Passed || result.Detail != "Disabled" {
		t.Fatalf("expected disabled pass, got %+v", result)
	}

	cfg.Notifications.NtfyTopic = "https://ntfy.sh/wordmill-test"
	result = CheckNotificationsFromConfig(cfg)
	if !result.Passed || result.Detail != "https://ntfy.sh/wordmill-test" {
		t.Fatalf("expected topic detail, got %+v", result)
	}
}
