package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"wordmill/internal/card"
	"wordmill/internal/dedup"
	"wordmill/internal/fileutil"
)

var isoDateRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// columnIndex maps card fields to row positions for one format.
type columnIndex struct {
	wordEN     int
	wordPT     int
	sentencePT int
	sentenceEN int
	dateAdded  int
}

func indicesFor(format Format) columnIndex {
	if format == FormatLegacy {
		return columnIndex{dateAdded: 0, wordPT: 1, wordEN: 2, sentencePT: 3, sentenceEN: 4}
	}
	return columnIndex{wordEN: 0, wordPT: 1, sentencePT: 2, sentenceEN: 3, dateAdded: 4}
}

// headerFor returns the header row matching a format's column order.
func headerFor(format Format) []string {
	if format == FormatLegacy {
		return []string{card.FieldDateAdded, card.FieldWordPT, card.FieldWordEN, card.FieldSentencePT, card.FieldSentenceEN}
	}
	return card.Columns
}

type csvStore struct {
	path   string
	format Format
}

func newCSVStore(path string) (*csvStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("store path required")
	}
	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}
	return &csvStore{path: path, format: format}, nil
}

// detectFormat inspects the first non-empty row exactly once. A header
// starting word_en means current order, one starting date_added means legacy
// order, and a headerless file whose first field is an ISO date means legacy
// data. Everything else, including fresh files, is current.
func detectFormat(path string) (Format, error) {
	f, err := fileutil.OpenBusyRetry(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FormatCurrent, nil
		}
		return FormatCurrent, fmt.Errorf("open store: %w", err)
	}
	defer f.Close()

	r := newRowReader(f)
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return FormatCurrent, nil
		}
		if err != nil {
			return FormatCurrent, fmt.Errorf("read store: %w", err)
		}
		first := strings.TrimSpace(firstField(row))
		if first == "" {
			continue
		}
		switch {
		case strings.EqualFold(first, card.FieldWordEN):
			return FormatCurrent, nil
		case strings.EqualFold(first, card.FieldDateAdded):
			return FormatLegacy, nil
		case isoDateRE.MatchString(first):
			return FormatLegacy, nil
		default:
			return FormatCurrent, nil
		}
	}
}

func newRowReader(f io.Reader) *csv.Reader {
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r
}

func firstField(row []string) string {
	if len(row) == 0 {
		return ""
	}
	return row[0]
}

func (s *csvStore) Format() Format {
	return s.format
}

// dataRows reads every row, skipping blanks and the header when present.
func (s *csvStore) dataRows() ([][]string, error) {
	f, err := fileutil.OpenBusyRetry(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer f.Close()

	headerField := headerFor(s.format)[0]
	r := newRowReader(f)
	var rows [][]string
	seenContent := false
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read store: %w", err)
		}
		first := strings.TrimSpace(firstField(row))
		if first == "" {
			continue
		}
		if !seenContent {
			seenContent = true
			if strings.EqualFold(first, headerField) {
				continue
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func field(row []string, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func (s *csvStore) ExistingWords(_ context.Context) (map[string]struct{}, error) {
	rows, err := s.dataRows()
	if err != nil {
		return nil, err
	}
	cols := indicesFor(s.format)
	words := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if word := strings.ToLower(field(row, cols.wordEN)); word != "" {
			words[word] = struct{}{}
		}
	}
	return words, nil
}

func (s *csvStore) ExistingSentenceKeys(_ context.Context) (map[dedup.SentenceKey]struct{}, error) {
	rows, err := s.dataRows()
	if err != nil {
		return nil, err
	}
	cols := indicesFor(s.format)
	keys := make(map[dedup.SentenceKey]struct{}, len(rows))
	for _, row := range rows {
		word := field(row, cols.wordEN)
		if word == "" {
			continue
		}
		key := dedup.KeyFor(word, field(row, cols.sentencePT), field(row, cols.sentenceEN))
		keys[key] = struct{}{}
	}
	return keys, nil
}

func (s *csvStore) Cards(_ context.Context) ([]card.Card, error) {
	rows, err := s.dataRows()
	if err != nil {
		return nil, err
	}
	cols := indicesFor(s.format)
	cards := make([]card.Card, 0, len(rows))
	for _, row := range rows {
		cards = append(cards, card.Card{
			WordEN:     field(row, cols.wordEN),
			WordPT:     field(row, cols.wordPT),
			SentencePT: field(row, cols.sentencePT),
			SentenceEN: field(row, cols.sentenceEN),
			DateAdded:  field(row, cols.dateAdded),
		})
	}
	return cards, nil
}

// rowFor reorders a canonical card to this store's column order.
func (s *csvStore) rowFor(c card.Card) []string {
	if s.format == FormatLegacy {
		return []string{c.DateAdded, c.WordPT, c.WordEN, c.SentencePT, c.SentenceEN}
	}
	return c.Row()
}

func (s *csvStore) Append(_ context.Context, cards []card.Card) (int, error) {
	if len(cards) == 0 {
		return 0, nil
	}

	// A fresh or empty store gets the current-format header first.
	if !fileutil.NonEmpty(s.path) {
		s.format = FormatCurrent
		f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return 0, fmt.Errorf("create store: %w", err)
		}
		w := csv.NewWriter(f)
		if err := w.Write(card.Columns); err != nil {
			f.Close()
			return 0, fmt.Errorf("write store header: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return 0, fmt.Errorf("write store header: %w", err)
		}
		if err := f.Close(); err != nil {
			return 0, fmt.Errorf("close store: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open store for append: %w", err)
	}

	w := csv.NewWriter(f)
	for _, c := range cards {
		if err := w.Write(s.rowFor(c)); err != nil {
			f.Close()
			return 0, fmt.Errorf("append store row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return 0, fmt.Errorf("flush store: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close store: %w", err)
	}
	return len(cards), nil
}
