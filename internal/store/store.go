package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	"wordmill/internal/card"
	"wordmill/internal/dedup"
	"wordmill/internal/fileutil"
)

// Format identifies the column order of a persisted store.
type Format string

const (
	// FormatCurrent orders columns word_en, word_pt, sentence_pt,
	// sentence_en, date_added.
	FormatCurrent Format = "current"
	// FormatLegacy orders columns date_added, word_pt, word_en,
	// sentence_pt, sentence_en.
	FormatLegacy Format = "legacy"
)

// Backend values accepted by Config.Backend.
const (
	BackendCSV    = "csv"
	BackendSheets = "sheets"
)

// Store is the persistence backend consulted and written by a pipeline run.
type Store interface {
	// Format reports the column order detected for this store.
	Format() Format
	// ExistingWords returns the lower-cased word_en values already persisted.
	ExistingWords(ctx context.Context) (map[string]struct{}, error)
	// ExistingSentenceKeys returns the normalized sentence keys already
	// persisted.
	ExistingSentenceKeys(ctx context.Context) (map[dedup.SentenceKey]struct{}, error)
	// Cards returns every persisted card in canonical shape, in store order.
	Cards(ctx context.Context) ([]card.Card, error)
	// Append persists cards at the end of the store and returns the number
	// of rows written.
	Append(ctx context.Context, cards []card.Card) (int, error)
}

// Config selects and configures a backend.
type Config struct {
	Backend         string
	Path            string
	SpreadsheetID   string
	Worksheet       string
	CredentialsFile string
}

// New constructs the configured backend. The CSV backend detects its file
// format here, once, so every subsequent read and append agrees on column
// order.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendCSV, "":
		return newCSVStore(cfg.Path)
	case BackendSheets:
		return newSheetsStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("store backend: unsupported value %q", cfg.Backend)
	}
}

// WriteSnapshot overwrites path with exactly the given cards in canonical
// order, header included. An empty card list still produces a header-only
// file so a failed or empty run is visible in the audit trail.
func WriteSnapshot(path string, cards []card.Card) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(card.Columns); err != nil {
		return fmt.Errorf("write snapshot header: %w", err)
	}
	for _, c := range cards {
		if err := w.Write(c.Row()); err != nil {
			return fmt.Errorf("write snapshot row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
