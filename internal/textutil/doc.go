// Package textutil provides small text normalization helpers shared by the
// lemma extractor and the enrichment response decoder.
//
// The primary use cases are:
//   - Mapping typographic punctuation (smart quotes, long dashes) to ASCII
//     before tokenization or JSON parsing
//   - Folding captured text to NFC so visually identical entries compare equal
//   - Reducing free-form values to tag-safe tokens for sync note tags
package textutil
