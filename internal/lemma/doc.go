// Package lemma derives a canonical short form from captured free text.
//
// Captured entries range from a single word to a full sentence typed in a
// hurry. Extract runs a fixed heuristic cascade that decides which part of
// the text is the vocabulary item worth keeping: short phrases pass through,
// "to <verb>" constructions yield the verb, mid-length phrases survive
// intact, and longer sentences are reduced to their most promising content
// word. The cascade order is load-bearing; reordering it changes which rule
// claims borderline inputs.
package lemma
