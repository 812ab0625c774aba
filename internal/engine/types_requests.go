package engine

import (
	"github.com/danieljhkim/edren/internal/editor"
	"github.com/danieljhkim/edren/internal/inventory"
)

// RenameRequest represents a request to run one rename session.
type RenameRequest struct {
	// Inventory supplies the entries to list
	Inventory inventory.Provider

	// Editor runs the interactive edit of the listing
	Editor editor.Editor

	// DryRun plans and schedules without touching the filesystem
	DryRun bool
}

// UndoRequest represents a request to revert the latest session.
type UndoRequest struct {
	// DryRun lists the renames that would be reverted
	DryRun bool
}
