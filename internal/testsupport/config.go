package testsupport

import (
	"path/filepath"
	"testing"

	"wordmill/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Enrichment gets a placeholder key and sync stays pointed at localhost so a
// stray test cannot reach anything real.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.BaseDir = filepath.Join(base, "anki")
	cfgVal.Paths.InboxDir = filepath.Join(cfgVal.Paths.BaseDir, "inbox")
	cfgVal.Paths.QueueFile = filepath.Join(cfgVal.Paths.InboxDir, "quick.jsonl")
	cfgVal.Paths.StoreFile = filepath.Join(cfgVal.Paths.BaseDir, "sayings.csv")
	cfgVal.Paths.SnapshotFile = filepath.Join(cfgVal.Paths.BaseDir, "last_import.csv")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "state", "logs")
	cfgVal.Enrichment.APIKey = "test-key"
	cfgVal.Logging.Format = "json"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithStoreBackend overrides the persistence backend on the test config.
func WithStoreBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.Backend = backend
	}
}

// WithEnrichmentBaseURL points the enrichment client at a test server.
func WithEnrichmentBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Enrichment.BaseURL = url
	}
}

// WithSyncURL points the sync client at a test server.
func WithSyncURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sync.URL = url
	}
}

// WithSyncDisabled turns off the sync stage on the test config.
func WithSyncDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sync.Enabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.BaseDir)
}
