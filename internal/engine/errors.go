package engine

import (
	"errors"
	"fmt"

	"github.com/danieljhkim/edren/internal/journal"
	"github.com/danieljhkim/edren/internal/planner"
)

var (
	// ErrNothingToRename indicates the inventory was empty.
	ErrNothingToRename = errors.New("nothing to rename")

	// ErrNoSession indicates there is no session to undo or show.
	ErrNoSession = errors.New("no rename session recorded")

	// ErrUnknownBackend indicates a journal backend with no store.
	ErrUnknownBackend = errors.New("unknown journal backend")

	// ErrExecution indicates a physical rename failed mid-session.
	ErrExecution = errors.New("rename failed")

	// ErrUndo indicates a reverse replay failed.
	ErrUndo = errors.New("undo failed")

	// ErrIdentityMismatch indicates a journaled path holds a different entry.
	ErrIdentityMismatch = errors.New("path holds a different entry")
)

// ExecutionError reports the step that failed and everything applied before it.
// The filesystem is left exactly as Applied describes.
type ExecutionError struct {
	// Session is the ID of the session's journal
	Session string

	// Step is the rename that failed
	Step planner.Step

	// Applied lists the journaled renames, in order, that succeeded before Step
	Applied []journal.Entry

	// Err is the underlying failure
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("rename %s -> %s failed after %d applied: %v",
		e.Step.Source, e.Step.Destination, len(e.Applied), e.Err)
}

// Unwrap exposes both ErrExecution and the cause.
func (e *ExecutionError) Unwrap() []error { return []error{ErrExecution, e.Err} }

// UndoError reports where a reverse replay stopped.
// Entries newer than Reached are reverted and marked; Reached and older are not.
type UndoError struct {
	// Reached is the journal entry that could not be reverted
	Reached journal.Entry

	// Reverted counts the entries reverted before the failure
	Reverted int

	// Err is the underlying failure
	Err error
}

func (e *UndoError) Error() string {
	return fmt.Sprintf("undo of entry %d (%s -> %s) failed after %d reverted: %v",
		e.Reached.Seq, e.Reached.Destination, e.Reached.Source, e.Reverted, e.Err)
}

// Unwrap exposes both ErrUndo and the cause.
func (e *UndoError) Unwrap() []error { return []error{ErrUndo, e.Err} }
