package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"wordmill/internal/card"
	"wordmill/internal/dedup"
)

// worksheet is the narrow slice of the Sheets API the store needs. The real
// implementation wraps sheets/v4; tests substitute an in-memory fake.
type worksheet interface {
	Fetch(ctx context.Context) ([][]string, error)
	AppendRows(ctx context.Context, rows [][]string) error
}

// sheetsStore keeps the worksheet in current-format order. The worksheet is
// shared with human editors, so the header row is ensured once per run and
// rows are cached between the read calls of a single run.
type sheetsStore struct {
	api worksheet

	headerEnsured bool
	cache         [][]string
	cached        bool
}

func newSheetsStore(ctx context.Context, cfg Config) (*sheetsStore, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("sheets store: spreadsheet id required")
	}
	if strings.TrimSpace(cfg.CredentialsFile) == "" {
		return nil, errors.New("sheets store: credentials file required")
	}

	service, err := sheets.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("sheets store: create service: %w", err)
	}

	name := strings.TrimSpace(cfg.Worksheet)
	if name == "" {
		name = "Sheet1"
	}
	return &sheetsStore{
		api: &sheetsWorksheet{
			service:       service,
			spreadsheetID: cfg.SpreadsheetID,
			name:          name,
		},
	}, nil
}

func (s *sheetsStore) Format() Format {
	return FormatCurrent
}

func (s *sheetsStore) rows(ctx context.Context) ([][]string, error) {
	if s.cached {
		return s.cache, nil
	}
	values, err := s.api.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets store: fetch values: %w", err)
	}

	if !s.headerEnsured {
		if len(values) == 0 {
			if err := s.api.AppendRows(ctx, [][]string{card.Columns}); err != nil {
				return nil, fmt.Errorf("sheets store: write header: %w", err)
			}
		}
		s.headerEnsured = true
	}

	var rows [][]string
	for i, row := range values {
		if i == 0 && len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), card.FieldWordEN) {
			continue
		}
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		rows = append(rows, row)
	}
	s.cache = rows
	s.cached = true
	return rows, nil
}

func (s *sheetsStore) invalidate() {
	s.cache = nil
	s.cached = false
}

func (s *sheetsStore) ExistingWords(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.rows(ctx)
	if err != nil {
		return nil, err
	}
	words := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if word := strings.ToLower(field(row, 0)); word != "" {
			words[word] = struct{}{}
		}
	}
	return words, nil
}

func (s *sheetsStore) ExistingSentenceKeys(ctx context.Context) (map[dedup.SentenceKey]struct{}, error) {
	rows, err := s.rows(ctx)
	if err != nil {
		return nil, err
	}
	keys := make(map[dedup.SentenceKey]struct{}, len(rows))
	for _, row := range rows {
		word := field(row, 0)
		if word == "" {
			continue
		}
		keys[dedup.KeyFor(word, field(row, 2), field(row, 3))] = struct{}{}
	}
	return keys, nil
}

func (s *sheetsStore) Cards(ctx context.Context) ([]card.Card, error) {
	rows, err := s.rows(ctx)
	if err != nil {
		return nil, err
	}
	cards := make([]card.Card, 0, len(rows))
	for _, row := range rows {
		cards = append(cards, card.FromRow(row))
	}
	return cards, nil
}

func (s *sheetsStore) Append(ctx context.Context, cards []card.Card) (int, error) {
	if len(cards) == 0 {
		return 0, nil
	}
	// Ensure the header exists before the first data row lands.
	if _, err := s.rows(ctx); err != nil {
		return 0, err
	}
	rows := make([][]string, 0, len(cards))
	for _, c := range cards {
		rows = append(rows, c.Row())
	}
	if err := s.api.AppendRows(ctx, rows); err != nil {
		return 0, fmt.Errorf("sheets store: append rows: %w", err)
	}
	s.invalidate()
	return len(cards), nil
}

// sheetsWorksheet adapts one worksheet of a spreadsheet to the store's needs.
type sheetsWorksheet struct {
	service       *sheets.Service
	spreadsheetID string
	name          string
}

func (w *sheetsWorksheet) Fetch(ctx context.Context) ([][]string, error) {
	resp, err := w.service.Spreadsheets.Values.Get(w.spreadsheetID, w.name).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, 0, len(raw))
		for _, cell := range raw {
			row = append(row, fmt.Sprint(cell))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (w *sheetsWorksheet) AppendRows(ctx context.Context, rows [][]string) error {
	values := make([][]any, 0, len(rows))
	for _, row := range rows {
		cells := make([]any, 0, len(row))
		for _, cell := range row {
			cells = append(cells, cell)
		}
		values = append(values, cells)
	}
	_, err := w.service.Spreadsheets.Values.
		Append(w.spreadsheetID, w.name, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}
