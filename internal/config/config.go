package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the capture, store, and state locations. Empty entries are
// derived from base_dir during normalization.
type Paths struct {
	BaseDir      string `toml:"base_dir"`
	InboxDir     string `toml:"inbox_dir"`
	QueueFile    string `toml:"queue_file"`
	StoreFile    string `toml:"store_file"`
	SnapshotFile string `toml:"snapshot_file"`
	StateDir     string `toml:"state_dir"`
	LogDir       string `toml:"log_dir"`
}

// Store selects and configures the persistence backend.
type Store struct {
	Backend         string `toml:"backend"`
	SpreadsheetID   string `toml:"spreadsheet_id"`
	Worksheet       string `toml:"worksheet"`
	CredentialsFile string `toml:"credentials_file"`
}

// Enrichment contains connection settings for the text-generation
// collaborator that turns lemmas into bilingual cards.
type Enrichment struct {
	Transport      string  `toml:"transport"`
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	Temperature    float64 `toml:"temperature"`
	TopP           float64 `toml:"top_p"`
	MaxTokens      int     `toml:"max_tokens"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	AzureEndpoint  string  `toml:"azure_endpoint"`
}

// Cards describes the produced flashcards.
type Cards struct {
	LanguageTag string `toml:"language_tag"`
}

// Dedup selects the word-level duplicate policy.
type Dedup struct {
	WordScope string `toml:"word_scope"`
}

// Sync contains configuration for the flashcard application connection.
type Sync struct {
	Enabled            bool     `toml:"enabled"`
	URL                string   `toml:"url"`
	Deck               string   `toml:"deck"`
	NoteModel          string   `toml:"note_model"`
	Tags               []string `toml:"tags"`
	RequestTimeout     int      `toml:"request_timeout"`
	PingTimeout        int      `toml:"ping_timeout"`
	LaunchCommand      string   `toml:"launch_command"`
	LaunchGraceSeconds int      `toml:"launch_grace_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Completed      bool   `toml:"completed"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for wordmill.
//
// Configuration sections by subsystem:
//   - Paths: capture inbox, persisted store, snapshot, and state locations
//   - Store: persistence backend selection (csv or sheets)
//   - Enrichment: collaborator transport, model, and sampling settings
//   - Cards: produced card properties (target language tag)
//   - Dedup: word-level duplicate scope
//   - Sync: flashcard application target, note shape, and auto-launch
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Store         Store         `toml:"store"`
	Enrichment    Enrichment    `toml:"enrichment"`
	Cards         Cards         `toml:"cards"`
	Dedup         Dedup         `toml:"dedup"`
	Sync          Sync          `toml:"sync"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/wordmill/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("wordmill.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for pipeline operation.
// The inbox directory is created on a best-effort basis so commands keep
// working when cloud storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	// Best-effort to avoid failing config load when cloud storage is offline.
	for _, dir := range []string{c.Paths.InboxDir, filepath.Dir(c.Paths.StoreFile), filepath.Dir(c.Paths.SnapshotFile)} {
		if strings.TrimSpace(dir) != "" && dir != "." {
			_ = os.MkdirAll(dir, 0o755)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// ResolvePath reports the configuration file Load would use for the given
// override, and whether that file exists.
func ResolvePath(path string) (string, bool, error) {
	return resolveConfigPath(path)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
