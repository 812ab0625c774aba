package cli

import (
	"errors"
	"fmt"

	"github.com/danieljhkim/edren/internal/codec"
	"github.com/danieljhkim/edren/internal/editor"
	"github.com/danieljhkim/edren/internal/engine"
	"github.com/danieljhkim/edren/internal/planner"
)

// printHints tells the user what to do next after err. It never restates
// the error itself.
func printHints(err error) {
	var conflictErr *planner.ConflictError
	var execErr *engine.ExecutionError
	var undoErr *engine.UndoError

	switch {
	case errors.As(err, &conflictErr):
		if len(conflictErr.Conflicts) > 1 {
			items := make([]string, 0, len(conflictErr.Conflicts))
			for _, c := range conflictErr.Conflicts {
				items = append(items, fmt.Sprintf("%s: %s (existing: %s, incoming: %s)", c.Path, c.Reason, c.Existing, c.Incoming))
			}
			PrintList(items, 1)
		}
		PrintEmptyState("Nothing was renamed. Fix the listing and run again.")

	case errors.Is(err, codec.ErrInvalidInput), errors.Is(err, codec.ErrUnlistable):
		PrintEmptyState("Nothing was renamed.")

	case errors.As(err, &execErr):
		if len(execErr.Applied) > 0 {
			PrintEmptyState("Run 'edren log' to inspect or 'edren undo' to revert the applied renames")
		}

	case errors.As(err, &undoErr):
		PrintEmptyState("Fix the problem and run 'edren undo' again")

	case errors.Is(err, editor.ErrNoEditor):
		PrintEmptyState("Set an editor with --editor, EDREN_EDITOR, VISUAL or EDITOR")
	}
}
