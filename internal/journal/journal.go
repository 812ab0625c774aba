// Package journal records every physical rename a session performs.
//
// A journal is an append-only, per-session sequence of entries. Each entry is
// durable before Append returns, so after a crash the journal lists exactly
// the renames that happened. Undo walks the entries newest first and marks
// each one as it is reverted; marks are appended too, never rewritten.
//
// Two backends implement the same Store interface: JSON Lines files
// (FileStore) and SQLite (SQLiteStore).
package journal

import (
	"errors"
	"time"

	"github.com/danieljhkim/edren/internal/inventory"
)

// ErrNotFound is returned when a journal or entry does not exist.
var ErrNotFound = errors.New("journal not found")

// Entry is one applied rename.
type Entry struct {
	// Seq numbers entries from 1 in execution order
	Seq uint64 `json:"seq"`

	// Identity is the entry that moved
	Identity inventory.Identity `json:"identity"`

	// Source is where the entry was before the rename
	Source string `json:"source"`

	// Destination is where the rename put it
	Destination string `json:"destination"`

	// AppliedAt is when the rename was recorded
	AppliedAt time.Time `json:"appliedAt"`

	// Undone is true once the rename has been reverted
	Undone bool `json:"undone"`
}

// Journal is an open, append-only log for one session.
// It is not safe for concurrent use; a session has a single writer.
type Journal interface {
	// Append durably records a rename and returns the stored entry.
	Append(identity inventory.Identity, source, destination string) (Entry, error)

	// MarkUndone durably records that the entry with seq was reverted.
	MarkUndone(seq uint64) error

	// Entries returns every entry in sequence order.
	Entries() ([]Entry, error)

	// Close releases the journal.
	Close() error
}

// Store opens and removes session journals.
type Store interface {
	// Create starts an empty journal for session, replacing any previous one.
	Create(session string) (Journal, error)

	// Open reopens the journal for session. Returns ErrNotFound if it is
	// absent or holds no entries.
	Open(session string) (Journal, error)

	// Remove deletes the journal for session. Removing a missing journal is not an error.
	Remove(session string) error
}

// Pending returns the entries not yet undone, newest first.
func Pending(entries []Entry) []Entry {
	pending := make([]Entry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		if !entries[i].Undone {
			pending = append(pending, entries[i])
		}
	}
	return pending
}
