package lemma

import (
	"regexp"
	"strings"
	"unicode"

	"wordmill/internal/textutil"
)

// Rule identifies which cascade step produced a candidate.
type Rule string

const (
	RuleShortPhrase    Rule = "short-phrase"
	RuleToVerb         Rule = "to-VERB"
	RulePhraseExtended Rule = "phrase-extended"
	RuleContentPrint   Rule = "content-print"
	RuleContentLongest Rule = "content-longest"
	RuleFallbackTop3   Rule = "fallback-top3"
)

// Candidate is a normalized vocabulary item derived from one captured entry.
type Candidate struct {
	Lemma    string
	Rule     Rule
	Original string
}

var toVerbRE = regexp.MustCompile(`(?i)\bto\s+([A-Za-z']+)`)

// Extract runs the heuristic cascade over one captured entry. The second
// return value is false when the entry is empty or too ambiguous to keep
// (a long sentence made entirely of stopwords).
func Extract(raw string) (Candidate, bool) {
	text := textutil.Fold(raw)
	if text == "" {
		return Candidate{}, false
	}
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return Candidate{}, false
	}

	// Short captures are already the item.
	if len(tokens) <= 3 {
		return Candidate{Lemma: strings.Join(tokens, " "), Rule: RuleShortPhrase, Original: raw}, true
	}

	// "to <verb>" captures name the verb.
	if m := toVerbRE.FindStringSubmatch(text); m != nil {
		return Candidate{Lemma: strings.ToLower(m[1]), Rule: RuleToVerb, Original: raw}, true
	}

	// Mid-length phrases with real content survive intact.
	if len(tokens) >= 5 && len(tokens) <= 8 && countContent(tokens) > 0 {
		phrase := strings.TrimSpace(strings.TrimRight(text, ".!?"))
		return Candidate{Lemma: phrase, Rule: RulePhraseExtended, Original: raw}, true
	}

	// Otherwise reduce to the strongest content word.
	if content := contentWords(tokens); len(content) > 0 {
		for _, w := range content {
			if strings.EqualFold(w, "print") {
				return Candidate{Lemma: "print", Rule: RuleContentPrint, Original: raw}, true
			}
		}
		longest := content[0]
		for _, w := range content[1:] {
			if len(w) > len(longest) {
				longest = w
			}
		}
		return Candidate{Lemma: strings.ToLower(longest), Rule: RuleContentLongest, Original: raw}, true
	}

	// A full sentence of nothing but stopwords names no item; skip it.
	if len(tokens) >= 4 && endsSentence(text) {
		return Candidate{}, false
	}

	head := tokens
	if len(head) > 3 {
		head = head[:3]
	}
	return Candidate{Lemma: strings.ToLower(strings.Join(head, " ")), Rule: RuleFallbackTop3, Original: raw}, true
}

// tokenize splits on whitespace and trims leading/trailing non-word runes
// from each token. Interior punctuation (apostrophes, hyphens) is kept.
func tokenize(text string) []string {
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tok := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func contentWords(tokens []string) []string {
	var out []string
	for _, t := range tokens {
		if !IsStopword(t) {
			out = append(out, t)
		}
	}
	return out
}

func countContent(tokens []string) int {
	n := 0
	for _, t := range tokens {
		if !IsStopword(t) {
			n++
		}
	}
	return n
}

func endsSentence(text string) bool {
	return strings.HasSuffix(text, ".") || strings.HasSuffix(text, "!") || strings.HasSuffix(text, "?")
}
