package anki

import (
	"time"

	"wordmill/internal/card"
	"wordmill/internal/textutil"
)

// Note is the AnkiConnect payload for a single flashcard.
type Note struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Tags      []string          `json:"tags"`
	Options   NoteOptions       `json:"options"`
}

// NoteOptions carries the duplicate-handling flags sent with each note.
type NoteOptions struct {
	AllowDuplicate bool   `json:"allowDuplicate"`
	DuplicateScope string `json:"duplicateScope"`
}

// DatedTag returns the per-day automation tag, e.g. auto_ptPT_20260314.
// Tagging every note with the run day makes a bad batch findable (and
// deletable) inside Anki later.
func DatedTag(languageTag string, day time.Time) string {
	return "auto_" + textutil.TagToken(languageTag) + "_" + day.Format("20060102")
}

// NewNote maps a card onto the configured deck and note model. Tags are the
// configured static tags plus the dated automation tag.
func NewNote(c card.Card, cfg Config, day time.Time) Note {
	tags := make([]string, 0, len(cfg.Tags)+1)
	tags = append(tags, cfg.Tags...)
	tags = append(tags, DatedTag(cfg.LanguageTag, day))

	return Note{
		DeckName:  cfg.Deck,
		ModelName: cfg.NoteModel,
		Fields: map[string]string{
			card.FieldWordEN:     c.WordEN,
			card.FieldWordPT:     c.WordPT,
			card.FieldSentencePT: c.SentencePT,
			card.FieldSentenceEN: c.SentenceEN,
			card.FieldDateAdded:  c.DateAdded,
		},
		Tags: tags,
		Options: NoteOptions{
			AllowDuplicate: false,
			DuplicateScope: "deck",
		},
	}
}

// BuildNotes converts cards to notes preserving input order.
func BuildNotes(cards []card.Card, cfg Config, day time.Time) []Note {
	notes := make([]Note, 0, len(cards))
	for _, c := range cards {
		notes = append(notes, NewNote(c, cfg, day))
	}
	return notes
}
