// Package dedup filters vocabulary candidates against already-known state.
//
// Two independent checks exist. The word check runs before enrichment and
// only considers single-token lemmas; suppressing a whole phrase because one
// of its words was seen before is not wanted. The sentence check runs after
// enrichment over a normalized (word, sentence_pt, sentence_en) key so that
// sentences differing only by HTML markup or whitespace compare equal.
// Both checks are advisory filters. A hit drops the candidate, never fails
// the run.
package dedup
