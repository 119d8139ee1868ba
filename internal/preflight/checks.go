package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"wordmill/internal/anki"
	"wordmill/internal/config"
	"wordmill/internal/enrich"
	"wordmill/internal/store"
)

// CheckEnrichment verifies the enrichment API key is present and, when live,
// that the API answers a minimal completion. The live probe uses a 30-second
// timeout and a single attempt (no retries).
func CheckEnrichment(ctx context.Context, cfg *config.Config, live bool) Result {
	const name = "Enrichment"

	if strings.TrimSpace(cfg.Enrichment.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing"}
	}
	if !live {
		return Result{Name: name, Passed: true, Detail: "API key configured (pass --live to probe)"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := enrich.NewClient(enrich.Config{
		Transport:      cfg.Enrichment.Transport,
		APIKey:         cfg.Enrichment.APIKey,
		BaseURL:        cfg.Enrichment.BaseURL,
		Model:          cfg.Enrichment.Model,
		TimeoutSeconds: cfg.Enrichment.TimeoutSeconds,
		AzureEndpoint:  cfg.Enrichment.AzureEndpoint,
	}, enrich.WithRetryMaxAttempts(1))
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeEnrichmentError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckSync verifies the flashcard application answers a version ping. The
// probe client carries no launch command, so a status check never boots the
// application.
func CheckSync(ctx context.Context, cfg *config.Config) Result {
	const name = "Sync"

	client, err := anki.NewClient(anki.Config{
		URL:                cfg.Sync.URL,
		PingTimeoutSeconds: cfg.Sync.PingTimeout,
	})
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	version, err := client.Ping(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("not reachable (%v)", err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("reachable (protocol %d)", version)}
}

// CheckLaunchCommand verifies the configured launch command's binary resolves
// on PATH.
func CheckLaunchCommand(command string) Result {
	const name = "Launch command"

	fields := strings.Fields(command)
	if len(fields) == 0 {
		return Result{Name: name, Detail: "not configured"}
	}
	if _, err := exec.LookPath(fields[0]); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("binary %q not found", fields[0])}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%q resolves", fields[0])}
}

// CheckStore verifies the persistence backend is usable. The csv backend
// needs a writable store directory; the sheets backend needs a readable
// credentials file.
func CheckStore(cfg *config.Config) Result {
	if cfg.Store.Backend == store.BackendSheets {
		return checkCredentialsFile("Sheets credentials", cfg.Store.CredentialsFile)
	}
	return CheckDirectoryAccess("Store directory", filepath.Dir(cfg.Paths.StoreFile))
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func checkCredentialsFile(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (readable)", path)}
}

// summarizeEnrichmentError produces a human-readable summary for enrichment
// health check failures.
func summarizeEnrichmentError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (enrichment API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (enrichment API unreachable)"
	}
	return err.Error()
}
