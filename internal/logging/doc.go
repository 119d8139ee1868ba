// Package logging builds the slog loggers used across wordmill.
//
// Two output formats exist: a pretty single-line format for terminals and a
// JSON format for files and non-interactive runs. The "auto" format picks
// pretty only when stdout is a terminal. Output can fan out to stdout,
// stderr, and log files simultaneously. A component attribute, when present,
// is rendered as a message prefix rather than a trailing key=value pair.
package logging
