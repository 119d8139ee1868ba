package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
)

// normalize expands paths, derives dependent locations, applies environment
// fallbacks, and canonicalizes enum values. It runs after decoding and
// before validation.
func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStore(); err != nil {
		return err
	}
	c.normalizeEnrichment()
	c.normalizeCards()
	c.normalizeDedup()
	c.normalizeSync()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.BaseDir) == "" || c.Paths.BaseDir == defaultBaseDir {
		if env, ok := os.LookupEnv("WORDMILL_BASE"); ok && strings.TrimSpace(env) != "" {
			c.Paths.BaseDir = env
		}
	}

	var err error
	if c.Paths.BaseDir, err = expandPath(c.Paths.BaseDir); err != nil {
		return fmt.Errorf("paths.base_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}

	if strings.TrimSpace(c.Paths.InboxDir) == "" {
		c.Paths.InboxDir = filepath.Join(c.Paths.BaseDir, "inbox")
	} else if c.Paths.InboxDir, err = expandPath(c.Paths.InboxDir); err != nil {
		return fmt.Errorf("paths.inbox_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.QueueFile) == "" {
		c.Paths.QueueFile = filepath.Join(c.Paths.InboxDir, defaultQueueName)
	} else if c.Paths.QueueFile, err = expandPath(c.Paths.QueueFile); err != nil {
		return fmt.Errorf("paths.queue_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.StoreFile) == "" {
		c.Paths.StoreFile = filepath.Join(c.Paths.BaseDir, defaultStoreName)
	} else if c.Paths.StoreFile, err = expandPath(c.Paths.StoreFile); err != nil {
		return fmt.Errorf("paths.store_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.SnapshotFile) == "" {
		c.Paths.SnapshotFile = filepath.Join(c.Paths.BaseDir, defaultSnapName)
	} else if c.Paths.SnapshotFile, err = expandPath(c.Paths.SnapshotFile); err != nil {
		return fmt.Errorf("paths.snapshot_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.StateDir, "logs")
	} else if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStore() error {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" {
		c.Store.Backend = defaultStoreKind
	}
	c.Store.SpreadsheetID = strings.TrimSpace(c.Store.SpreadsheetID)
	if strings.TrimSpace(c.Store.Worksheet) == "" {
		c.Store.Worksheet = defaultWorksheet
	}
	if strings.TrimSpace(c.Store.CredentialsFile) != "" {
		expanded, err := expandPath(c.Store.CredentialsFile)
		if err != nil {
			return fmt.Errorf("store.credentials_file: %w", err)
		}
		c.Store.CredentialsFile = expanded
	}
	return nil
}

func (c *Config) normalizeEnrichment() {
	c.Enrichment.Transport = strings.ToLower(strings.TrimSpace(c.Enrichment.Transport))
	if c.Enrichment.Transport == "" {
		c.Enrichment.Transport = defaultTransport
	}
	if strings.TrimSpace(c.Enrichment.APIKey) == "" {
		if env, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Enrichment.APIKey = env
		}
	}
	c.Enrichment.APIKey = strings.TrimSpace(c.Enrichment.APIKey)
	if strings.TrimSpace(c.Enrichment.BaseURL) == "" {
		c.Enrichment.BaseURL = defaultBaseURL
	}
	c.Enrichment.BaseURL = strings.TrimRight(strings.TrimSpace(c.Enrichment.BaseURL), "/")
	if strings.TrimSpace(c.Enrichment.Model) == "" {
		c.Enrichment.Model = defaultModel
	}
	if c.Enrichment.MaxTokens <= 0 {
		c.Enrichment.MaxTokens = defaultMaxTokens
	}
	if c.Enrichment.TimeoutSeconds <= 0 {
		c.Enrichment.TimeoutSeconds = defaultLLMTimeout
	}
	c.Enrichment.AzureEndpoint = strings.TrimSpace(c.Enrichment.AzureEndpoint)
}

func (c *Config) normalizeCards() {
	tag := strings.TrimSpace(c.Cards.LanguageTag)
	if tag == "" {
		tag = defaultLanguageTag
	}
	if parsed, err := language.Parse(tag); err == nil {
		tag = parsed.String()
	}
	c.Cards.LanguageTag = tag
}

func (c *Config) normalizeDedup() {
	c.Dedup.WordScope = strings.ToLower(strings.TrimSpace(c.Dedup.WordScope))
	if c.Dedup.WordScope == "" {
		c.Dedup.WordScope = defaultWordScope
	}
}

func (c *Config) normalizeSync() {
	c.Sync.URL = strings.TrimRight(strings.TrimSpace(c.Sync.URL), "/")
	if c.Sync.URL == "" {
		c.Sync.URL = defaultSyncURL
	}
	if strings.TrimSpace(c.Sync.Deck) == "" {
		c.Sync.Deck = defaultDeck
	}
	if strings.TrimSpace(c.Sync.NoteModel) == "" {
		c.Sync.NoteModel = defaultNoteModel
	}
	if len(c.Sync.Tags) == 0 {
		c.Sync.Tags = []string{"auto", c.Cards.LanguageTag}
	}
	if c.Sync.RequestTimeout <= 0 {
		c.Sync.RequestTimeout = defaultSyncTimeout
	}
	if c.Sync.PingTimeout <= 0 {
		c.Sync.PingTimeout = defaultPingTimeout
	}
	c.Sync.LaunchCommand = strings.TrimSpace(c.Sync.LaunchCommand)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays <= 0 {
		c.Logging.RetentionDays = defaultLogDays
	}
}
