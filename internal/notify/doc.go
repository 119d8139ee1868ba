// Package notify delivers run outcomes via ntfy.
//
// The default implementation publishes to the topic URL configured in
// config.toml and gracefully degrades to a no-op when no topic is set. The
// completed and errors toggles gate the two per-run notifications
// independently, so a phone can receive failures only.
//
// Callers treat delivery errors as loggable, never fatal; a run's outcome is
// already durable in the store and the ledger by the time a notification
// goes out.
package notify
