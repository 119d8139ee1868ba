package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// quoteReplacer maps typographic punctuation to its ASCII equivalent.
var quoteReplacer = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"‘", "'",
	"’", "'",
	"–", "-",
	"—", "-",
	" ", " ",
)

// NormalizeQuotes replaces smart quotes, long dashes, and non-breaking spaces
// with their ASCII equivalents. Captured text arrives from mobile keyboards
// that autocorrect straight quotes, and the enrichment collaborator sometimes
// echoes them back inside JSON payloads.
func NormalizeQuotes(s string) string {
	return quoteReplacer.Replace(s)
}

// Fold canonicalizes a captured string for comparison: Unicode NFC, ASCII
// punctuation, trimmed whitespace. Two entries that render identically fold
// to the same value.
func Fold(s string) string {
	return strings.TrimSpace(NormalizeQuotes(norm.NFC.String(s)))
}

// CollapseSpaces reduces every whitespace run to a single space and trims
// the result.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TagToken reduces a value to a token usable inside a sync note tag. Letters
// and digits are kept, everything else is dropped. Returns "unknown" when
// nothing survives.
func TagToken(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}
