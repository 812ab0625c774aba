// Package state persists the record of the latest rename session.
//
// edren keeps one session file, session.json under the data root. It names
// the journal that holds the session's renames and tracks how far the
// session got, so undo knows what to replay and the CLI can report it.
//
// Key concepts:
//   - Session: ID, journal backend, timestamps, status and move count
//   - Status: running, applied, partial or undo-partial
//   - StateStore: Interface for persisting and loading the session
package state
