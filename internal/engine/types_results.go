package engine

import (
	"github.com/danieljhkim/edren/internal/codec"
	"github.com/danieljhkim/edren/internal/inventory"
	"github.com/danieljhkim/edren/internal/journal"
	"github.com/danieljhkim/edren/internal/planner"
	"github.com/danieljhkim/edren/internal/state"
)

// RenameResult represents the outcome of a rename session.
type RenameResult struct {
	// Inventory is the snapshot the listing was built from
	Inventory inventory.Inventory

	// Listing is the text handed to the editor
	Listing string

	// Edited is the text the editor returned
	Edited string

	// Clauses are the decoded rename instructions
	Clauses []codec.Clause

	// Plan is the conflict-checked set of moves
	Plan *planner.Plan

	// Schedule is the ordered list of physical renames
	Schedule *planner.Schedule

	// Session is the recorded session (nil for dry runs and no-op edits)
	Session *state.Session

	// Applied lists the journaled renames (empty if DryRun)
	Applied []journal.Entry
}

// ExecuteResult represents the outcome of applying a schedule.
type ExecuteResult struct {
	// Session is the recorded session
	Session *state.Session

	// Applied lists the journaled renames in execution order
	Applied []journal.Entry
}

// UndoResult represents the outcome of an undo.
type UndoResult struct {
	// Session is the session that was undone
	Session *state.Session

	// Reverted lists the entries reverted, newest first
	Reverted []journal.Entry

	// AlreadyReverted lists entries found reverted on disk but not yet marked
	AlreadyReverted []journal.Entry

	// Complete is true when nothing is left to undo
	Complete bool
}

// HistoryResult represents the latest session and its journal.
type HistoryResult struct {
	// Session is the latest session
	Session *state.Session

	// Entries is the session's journal in sequence order
	Entries []journal.Entry
}
