// Package anki pushes finished cards into a running Anki instance through
// the AnkiConnect add-on.
//
// # Wire protocol
//
// Every call is an HTTP POST of {action, version, params} to the configured
// endpoint; the response carries {result, error}. The protocol version is
// pinned to 6.
//
// # Duplicate handling
//
// Notes are submitted with allowDuplicate disabled and a per-deck duplicate
// scope. Before committing, canAddNotes filters the batch down to the notes
// the service will actually accept, so replaying a run adds nothing new.
//
// # Auto-launch
//
// When the endpoint refuses the connection and a launch command is
// configured, the client starts the desktop application, waits a grace
// period, and retries the failed call a single time. The attempt flag lives
// on the client, so each run gets exactly one recovery and a fresh client
// gets a fresh attempt.
package anki
