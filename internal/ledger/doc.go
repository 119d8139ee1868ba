// Package ledger records pipeline run outcomes in a local SQLite database.
//
// The ledger is observability, not ground truth: the store file is what the
// pipeline protects, the ledger only answers "what ran and when" for the
// history and status commands. Callers treat write failures as loggable,
// not fatal.
//
// The database lives in the state directory, opened with WAL journaling and
// a busy timeout. Writes are wrapped in a short bounded retry because a
// stray reader (a history command mid-run) can hold the file briefly.
package ledger
