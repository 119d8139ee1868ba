// Package store persists vocabulary cards in a format-aware tabular store.
//
// Two backends exist behind one interface: a local CSV file and a Google
// Sheets worksheet. The CSV backend detects its column order once per run.
// Historical stores come in two orders: current (word_en first) and legacy
// (date_added first). Reads and appends use the indices implied by the
// detected order so a single file's column semantics never shift mid-stream;
// new files are always written in current order with a header.
//
// A snapshot file, written in canonical order each run, holds exactly the
// rows newly persisted by that run. The snapshot is an audit artifact and is
// overwritten unconditionally, including with a header-only file when a run
// persists nothing.
//
// Treat this package as the single source of truth for store column
// semantics; nothing else may index into raw rows.
package store
