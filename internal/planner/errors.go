package planner

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConflict indicates the plan cannot be executed without losing data.
var ErrConflict = errors.New("conflict detected")

// ConflictError carries every conflict found in a plan.
type ConflictError struct {
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	if len(e.Conflicts) == 1 {
		c := e.Conflicts[0]
		return fmt.Sprintf("%v: %s: %s", ErrConflict, c.Path, c.Reason)
	}
	paths := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		paths = append(paths, c.Path)
	}
	return fmt.Sprintf("%v: %d conflicts (%s)", ErrConflict, len(e.Conflicts), strings.Join(paths, ", "))
}

func (e *ConflictError) Unwrap() error { return ErrConflict }
