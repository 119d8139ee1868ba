package enrich

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"wordmill/internal/card"
	"wordmill/internal/textutil"
)

var embeddedObjectRE = regexp.MustCompile(`(?s)\{.*\}`)

type wireCard struct {
	WordEN     string `json:"word_en"`
	WordPT     string `json:"word_pt"`
	SentencePT string `json:"sentence_pt"`
	SentenceEN string `json:"sentence_en"`
}

// decodeObject parses model output into v. The payload is sanitized and
// defenced first; when direct parsing fails the first {...} block is
// extracted and parsed instead.
func decodeObject(content string, v any) error {
	cleaned := stripCodeFence(textutil.NormalizeQuotes(strings.TrimSpace(content)))
	if cleaned == "" {
		return errors.New("empty payload")
	}

	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		block := embeddedObjectRE.FindString(cleaned)
		if block == "" {
			return fmt.Errorf("parse payload: %w (payload snippet: %s)", err, payloadSnippet(cleaned))
		}
		if err := json.Unmarshal([]byte(block), v); err != nil {
			return fmt.Errorf("parse payload: %w (payload snippet: %s)", err, payloadSnippet(block))
		}
	}
	return nil
}

// decodeCard parses model output into a validated card.
func decodeCard(content string) (card.Card, error) {
	var wire wireCard
	if err := decodeObject(content, &wire); err != nil {
		return card.Card{}, err
	}

	c := card.Card{
		WordEN:     strings.TrimSpace(wire.WordEN),
		WordPT:     strings.TrimSpace(wire.WordPT),
		SentencePT: textutil.CollapseSpaces(wire.SentencePT),
		SentenceEN: textutil.CollapseSpaces(wire.SentenceEN),
	}
	if err := c.Validate(); err != nil {
		return card.Card{}, fmt.Errorf("invalid response: %w", err)
	}
	return c, nil
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := strings.TrimLeft(trimmed[3:], " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func payloadSnippet(content string) string {
	clean := textutil.CollapseSpaces(content)
	if clean == "" {
		return "<empty>"
	}
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
