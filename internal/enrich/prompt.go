package enrich

import (
	"fmt"
	"strings"
)

// SystemPrompt captures the instructions sent with every enrichment call.
// Update this text centrally so every transport stays in sync.
const SystemPrompt = "You are a meticulous European Portuguese (pt-PT) language expert. " +
	"For each English lemma, produce (JSON only): word_en, word_pt, sentence_pt, sentence_en. " +
	"Sentence_pt must be idiomatic pt-PT (Lisbon context ok), 12-22 words, C1 level. " +
	"Sentence_en is a natural English gloss."

const userPromptTemplate = `Return ONLY valid JSON, no code fences. Keys: word_en, word_pt, sentence_pt, sentence_en.
Target word: %s

Example:
{"word_en":"rent","word_pt":"renda","sentence_pt":"A renda aumentou este ano e estou a negociar um novo contrato.","sentence_en":"The rent went up this year and I am negotiating a new contract."}`

// UserPrompt renders the per-lemma request sent as the user message.
func UserPrompt(lemma string) string {
	return fmt.Sprintf(userPromptTemplate, strings.TrimSpace(lemma))
}
