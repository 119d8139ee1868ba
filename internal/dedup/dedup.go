package dedup

import (
	"html"
	"regexp"
	"strings"
)

// WordScope selects which state the word-level check consults.
type WordScope string

const (
	// ScopeGlobal suppresses any single-token lemma already present in the
	// persisted store.
	ScopeGlobal WordScope = "global"
	// ScopeCollection ignores the persisted store for word lookups and
	// defers to the sync service's per-deck duplicate scope. Lemmas accepted
	// earlier in the same run are still suppressed.
	ScopeCollection WordScope = "collection"
)

// SentenceKey is the normalized identity of an enriched card used for
// sentence-level duplicate detection.
type SentenceKey struct {
	Word       string
	SentencePT string
	SentenceEN string
}

var tagRE = regexp.MustCompile(`<[^>]+>`)

// NormalizeSentence folds sentence text for duplicate comparison: HTML
// entities unescaped, tags replaced by spaces, line endings unified, and all
// whitespace runs collapsed to single spaces.
func NormalizeSentence(value string) string {
	text := html.UnescapeString(value)
	text = tagRE.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Join(strings.Fields(text), " ")
}

// KeyFor builds the sentence-level duplicate key for a card. The word is
// lower-cased; sentence case is preserved.
func KeyFor(wordEN, sentencePT, sentenceEN string) SentenceKey {
	return SentenceKey{
		Word:       strings.ToLower(strings.TrimSpace(wordEN)),
		SentencePT: NormalizeSentence(sentencePT),
		SentenceEN: NormalizeSentence(sentenceEN),
	}
}

// Filter holds the duplicate state consulted during one pipeline run.
type Filter struct {
	scope     WordScope
	words     map[string]struct{}
	sentences map[SentenceKey]struct{}
}

// NewFilter returns an empty filter with the given word scope.
func NewFilter(scope WordScope) *Filter {
	return &Filter{
		scope:     scope,
		words:     make(map[string]struct{}),
		sentences: make(map[SentenceKey]struct{}),
	}
}

// LoadStoreWords seeds the word set from the persisted store. Under
// ScopeCollection the store is intentionally ignored.
func (f *Filter) LoadStoreWords(words map[string]struct{}) {
	if f.scope == ScopeCollection {
		return
	}
	for w := range words {
		f.AddWord(w)
	}
}

// LoadStoreSentences seeds the sentence set from the persisted store.
func (f *Filter) LoadStoreSentences(keys map[SentenceKey]struct{}) {
	for k := range keys {
		f.sentences[k] = struct{}{}
	}
}

// AddWord records a lemma as seen for subsequent word checks.
func (f *Filter) AddWord(lemma string) {
	f.words[strings.ToLower(strings.TrimSpace(lemma))] = struct{}{}
}

// SeenWord reports whether the word-level check suppresses this lemma.
// Multi-word lemmas always pass.
func (f *Filter) SeenWord(lemma string) bool {
	lemma = strings.TrimSpace(lemma)
	if len(strings.Fields(lemma)) != 1 {
		return false
	}
	_, ok := f.words[strings.ToLower(lemma)]
	return ok
}

// AddSentence records a card's sentence key as seen.
func (f *Filter) AddSentence(key SentenceKey) {
	f.sentences[key] = struct{}{}
}

// SeenSentence reports whether an identical sentence pair was already
// persisted or produced earlier in this run.
func (f *Filter) SeenSentence(key SentenceKey) bool {
	_, ok := f.sentences[key]
	return ok
}
