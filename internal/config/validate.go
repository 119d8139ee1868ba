package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateEnrichment(); err != nil {
		return err
	}
	if err := c.validateCards(); err != nil {
		return err
	}
	if err := c.validateDedup(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.BaseDir) == "" {
		return errors.New("paths.base_dir must be set (or set WORDMILL_BASE)")
	}
	if strings.TrimSpace(c.Paths.QueueFile) == "" {
		return errors.New("paths.queue_file must be set")
	}
	if strings.TrimSpace(c.Paths.StoreFile) == "" {
		return errors.New("paths.store_file must be set")
	}
	if c.Paths.SnapshotFile == c.Paths.StoreFile {
		return errors.New("paths.snapshot_file must differ from paths.store_file")
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case "csv":
		return nil
	case "sheets":
		if c.Store.SpreadsheetID == "" {
			return errors.New("store.spreadsheet_id must be set when store.backend is \"sheets\"")
		}
		if strings.TrimSpace(c.Store.CredentialsFile) == "" {
			return errors.New("store.credentials_file must be set when store.backend is \"sheets\"")
		}
		return nil
	default:
		return fmt.Errorf("store.backend must be \"csv\" or \"sheets\", got %q", c.Store.Backend)
	}
}

func (c *Config) validateEnrichment() error {
	switch c.Enrichment.Transport {
	case "http", "sdk-public":
	case "sdk-azure":
		if c.Enrichment.AzureEndpoint == "" {
			return errors.New("enrichment.azure_endpoint must be set when enrichment.transport is \"sdk-azure\"")
		}
	default:
		return fmt.Errorf("enrichment.transport must be \"http\", \"sdk-public\", or \"sdk-azure\", got %q", c.Enrichment.Transport)
	}
	if c.Enrichment.Temperature < 0 || c.Enrichment.Temperature > 2 {
		return errors.New("enrichment.temperature must be between 0 and 2")
	}
	if c.Enrichment.TopP < 0 || c.Enrichment.TopP > 1 {
		return errors.New("enrichment.top_p must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateCards() error {
	if _, err := language.Parse(c.Cards.LanguageTag); err != nil {
		return fmt.Errorf("cards.language_tag %q is not a valid BCP 47 tag", c.Cards.LanguageTag)
	}
	return nil
}

func (c *Config) validateDedup() error {
	switch c.Dedup.WordScope {
	case "global", "collection":
		return nil
	default:
		return fmt.Errorf("dedup.word_scope must be \"global\" or \"collection\", got %q", c.Dedup.WordScope)
	}
}

func (c *Config) validateSync() error {
	if !c.Sync.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Sync.URL) == "" {
		return errors.New("sync.url must be set when sync.enabled is true")
	}
	if strings.TrimSpace(c.Sync.Deck) == "" {
		return errors.New("sync.deck must be set when sync.enabled is true")
	}
	if strings.TrimSpace(c.Sync.NoteModel) == "" {
		return errors.New("sync.note_model must be set when sync.enabled is true")
	}
	if err := ensurePositiveMap(map[string]int{
		"sync.request_timeout": c.Sync.RequestTimeout,
		"sync.ping_timeout":    c.Sync.PingTimeout,
	}); err != nil {
		return err
	}
	if c.Sync.LaunchGraceSeconds < 0 {
		return errors.New("sync.launch_grace_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "pretty", "json":
	default:
		return fmt.Errorf("logging.format must be \"auto\", \"pretty\", or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
