// Package pipeline runs one capture-to-flashcard pass end to end.
//
// The Runner merges capture fragments into the queue, reads the queued
// entries, normalizes them into lemma candidates, drops duplicates against
// the persisted store, enriches the survivors into bilingual cards, persists
// the batch with a snapshot, and pushes the new cards to the sync service.
// Per-item enrichment failures are counted and skipped; stage failures abort
// the run and leave the queue file intact so the next invocation replays it.
//
// Each call to Run builds its own run ID, child logger, ledger row, and sync
// client, so state never leaks between runs. Dry runs exercise the full read
// and enrichment path but write nothing.
package pipeline
