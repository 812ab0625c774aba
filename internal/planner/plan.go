package planner

import (
	"github.com/danieljhkim/edren/internal/inventory"
)

// Plan is the full set of moves for one session.
type Plan struct {
	// Moves is the list of renames, in clause order
	Moves []Move

	// Occupied maps every inventory path to the entry holding it at planning time
	Occupied map[string]inventory.Identity

	// Conflicts is a list of detected conflicts (empty if no conflicts)
	Conflicts []Conflict
}

// Move is a single rename within one parent directory.
type Move struct {
	// Identity is the entry being renamed
	Identity inventory.Identity

	// Source is the current absolute path
	Source string

	// Destination is the absolute path after the rename
	Destination string
}

// Conflict represents a conflict detected during planning.
type Conflict struct {
	// Path is the destination path where the conflict was detected
	Path string

	// Reason is a human-readable explanation of the conflict
	Reason string

	// Existing describes what currently holds the path
	Existing string

	// Incoming describes what the plan wants to move there
	Incoming string
}

// NewPlan creates a new empty Plan over inv.
func NewPlan(inv inventory.Inventory) *Plan {
	return &Plan{
		Moves:     []Move{},
		Occupied:  inv.ByPath(),
		Conflicts: []Conflict{},
	}
}

// HasConflicts returns true if the plan has any conflicts.
func (p *Plan) HasConflicts() bool {
	return len(p.Conflicts) > 0
}

// AddMove adds a move to the plan.
func (p *Plan) AddMove(m Move) {
	p.Moves = append(p.Moves, m)
}

// AddConflict adds a conflict to the plan.
func (p *Plan) AddConflict(conflict Conflict) {
	p.Conflicts = append(p.Conflicts, conflict)
}

// Sources indexes the moves by source path.
func (p *Plan) Sources() map[string]int {
	sources := make(map[string]int, len(p.Moves))
	for i, m := range p.Moves {
		sources[m.Source] = i
	}
	return sources
}
