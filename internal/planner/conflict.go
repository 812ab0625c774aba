package planner

import (
	"fmt"
	"os"

	"github.com/danieljhkim/edren/internal/fsops"
)

// ConflictChecker checks whether a destination can receive a moved entry.
type ConflictChecker struct {
	fs      fsops.FS
	plan    *Plan
	sources map[string]int
}

// NewConflictChecker creates a new ConflictChecker for plan.
func NewConflictChecker(fs fsops.FS, plan *Plan) *ConflictChecker {
	return &ConflictChecker{
		fs:      fs,
		plan:    plan,
		sources: plan.Sources(),
	}
}

// CheckDestination checks for conflicts at the destination of m.
// Returns a Conflict if one is detected, or nil if the path is safe to use.
func (c *ConflictChecker) CheckDestination(m Move) *Conflict {
	// Destination is vacated by another move in the plan
	if _, ok := c.sources[m.Destination]; ok {
		return nil
	}

	if holder, ok := c.plan.Occupied[m.Destination]; ok {
		return &Conflict{
			Path:     m.Destination,
			Reason:   "Destination is held by an entry that is not being renamed",
			Existing: fmt.Sprintf("entry %s", holder),
			Incoming: m.Source,
		}
	}

	exists, err := c.fs.Exists(m.Destination)
	if err != nil {
		return &Conflict{
			Path:     m.Destination,
			Reason:   fmt.Sprintf("Failed to check path: %v", err),
			Existing: "unknown",
			Incoming: m.Source,
		}
	}
	if !exists {
		return nil
	}

	// A case-only rename on a case-insensitive filesystem finds itself
	if c.isSameEntry(m.Source, m.Destination) {
		return nil
	}

	return &Conflict{
		Path:     m.Destination,
		Reason:   "Untracked file/directory exists at destination",
		Existing: "untracked",
		Incoming: m.Source,
	}
}

// isSameEntry reports whether both paths resolve to the same file.
func (c *ConflictChecker) isSameEntry(a, b string) bool {
	infoA, err := c.fs.Lstat(a)
	if err != nil {
		return false
	}
	infoB, err := c.fs.Lstat(b)
	if err != nil {
		return false
	}
	return os.SameFile(infoA, infoB)
}
