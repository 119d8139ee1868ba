package lemma

import "strings"

// stopwordList is the closed list of words ignored when hunting for content
// words: pronouns, articles, prepositions, conjunctions, auxiliary and modal
// verbs, possessives, plus "page"/"pages" which show up constantly in
// captures taken while reading and never denote the vocabulary item itself.
var stopwordList = []string{
	// pronouns and demonstratives
	"i", "me", "my", "mine", "myself",
	"you", "your", "yours", "yourself",
	"he", "him", "his", "himself",
	"she", "her", "hers", "herself",
	"it", "its", "itself",
	"we", "us", "our", "ours", "ourselves",
	"they", "them", "their", "theirs", "themselves",
	"this", "that", "these", "those",
	"who", "whom", "whose", "which", "what",
	// articles
	"a", "an", "the",
	// prepositions
	"at", "by", "for", "from", "in", "into", "of", "off", "on", "onto",
	"out", "over", "to", "under", "up", "with", "about", "above", "across",
	"after", "against", "along", "around", "before", "behind", "below",
	"between", "during", "near", "through", "until", "upon", "without",
	// conjunctions
	"and", "but", "or", "nor", "so", "yet", "if", "because", "while",
	"when", "where", "than", "as",
	// auxiliary and modal verbs
	"am", "is", "are", "was", "were", "be", "been", "being",
	"do", "does", "did", "done",
	"have", "has", "had", "having",
	"will", "would", "shall", "should", "can", "could", "may", "might", "must",
	// capture noise
	"page", "pages",
}

var stopwords map[string]struct{}

func init() {
	stopwords = make(map[string]struct{}, len(stopwordList))
	for _, w := range stopwordList {
		stopwords[w] = struct{}{}
	}
}

// IsStopword reports whether w (case-insensitive) is on the closed stopword
// list.
func IsStopword(w string) bool {
	_, ok := stopwords[strings.ToLower(w)]
	return ok
}
