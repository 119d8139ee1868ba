// Package card defines the bilingual flashcard shared by the enrichment,
// persistence, and sync layers.
package card

import (
	"fmt"
	"strings"
)

// Field names as they appear on the wire and in store headers.
const (
	FieldWordEN     = "word_en"
	FieldWordPT     = "word_pt"
	FieldSentencePT = "sentence_pt"
	FieldSentenceEN = "sentence_en"
	FieldDateAdded  = "date_added"
)

// Columns is the canonical column order used in memory, in snapshots, and in
// current-format stores.
var Columns = []string{FieldWordEN, FieldWordPT, FieldSentencePT, FieldSentenceEN, FieldDateAdded}

// Card is one enriched vocabulary flashcard. DateAdded is assigned at
// persistence time and is empty on cards fresh from enrichment.
type Card struct {
	WordEN     string
	WordPT     string
	SentencePT string
	SentenceEN string
	DateAdded  string
}

// MissingFieldError reports a required card field that is empty.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.Field)
}

// Validate checks that the four content fields are non-empty after trimming.
// DateAdded is not required; it is stamped later.
func (c Card) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{FieldWordEN, c.WordEN},
		{FieldWordPT, c.WordPT},
		{FieldSentencePT, c.SentencePT},
		{FieldSentenceEN, c.SentenceEN},
	}
	for _, field := range fields {
		if strings.TrimSpace(field.value) == "" {
			return &MissingFieldError{Field: field.name}
		}
	}
	return nil
}

// Row returns the card in canonical column order.
func (c Card) Row() []string {
	return []string{c.WordEN, c.WordPT, c.SentencePT, c.SentenceEN, c.DateAdded}
}

// FromRow builds a card from a row in canonical column order. Short rows are
// padded with empty fields.
func FromRow(row []string) Card {
	get := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	return Card{
		WordEN:     get(0),
		WordPT:     get(1),
		SentencePT: get(2),
		SentenceEN: get(3),
		DateAdded:  get(4),
	}
}
