package integration

import (
	"errors"
	"testing"

	"github.com/danieljhkim/edren/internal/planner"
	"github.com/danieljhkim/edren/internal/state"
)

func TestRename_Swap(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			env := setupTestEngine(t, backend)
			env.writeFiles(t, "a.txt", "b.txt", "keep.txt")

			result, err := env.rename(t, map[string]string{"a.txt": "b.txt", "b.txt": "a.txt"}, "*.txt")
			if err != nil {
				t.Fatalf("Rename() error = %v", err)
			}

			if len(result.Plan.Moves) != 2 {
				t.Errorf("expected 2 moves, got %d", len(result.Plan.Moves))
			}
			if result.Schedule.Temporaries != 1 {
				t.Errorf("expected 1 temporary, got %d", result.Schedule.Temporaries)
			}
			if len(result.Applied) != 3 {
				t.Errorf("expected 3 journaled renames, got %d", len(result.Applied))
			}
			if result.Session == nil || result.Session.Status != state.StatusApplied {
				t.Fatalf("expected an applied session, got %+v", result.Session)
			}
			if result.Session.Journal != backend {
				t.Errorf("session journal = %q, want %q", result.Session.Journal, backend)
			}

			env.assertContent(t, "a.txt", "b.txt")
			env.assertContent(t, "b.txt", "a.txt")
			env.assertContent(t, "keep.txt", "keep.txt")
			env.assertClean(t, ".")
		})
	}
}

func TestRename_Rotation(t *testing.T) {
	env := setupTestEngine(t, backends[0])
	env.writeFiles(t, "1", "2", "3", "4")

	_, err := env.rename(t, map[string]string{"1": "2", "2": "3", "3": "4", "4": "1"}, "*")
	if err != nil {
		t.Fatalf("Rename() error = %v", err)
	}

	env.assertContent(t, "2", "1")
	env.assertContent(t, "3", "2")
	env.assertContent(t, "4", "3")
	env.assertContent(t, "1", "4")
	env.assertClean(t, ".")
}

func TestRename_DirectoryAndChild(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			env := setupTestEngine(t, backend)
			env.writeFiles(t, "dir/file", "dir/other")

			_, err := env.rename(t, map[string]string{"dir": "folder", "file": "doc"}, "dir", "dir/file")
			if err != nil {
				t.Fatalf("Rename() error = %v", err)
			}

			env.assertMissing(t, "dir")
			env.assertContent(t, "folder/doc", "dir/file")
			env.assertContent(t, "folder/other", "dir/other")
		})
	}
}

func TestRename_ConflictLeavesDiskUntouched(t *testing.T) {
	env := setupTestEngine(t, backends[0])
	env.writeFiles(t, "a.txt", "taken.txt")

	// taken.txt exists but is not part of the selection
	_, err := env.rename(t, map[string]string{"a.txt": "taken.txt"}, "a.txt")

	var conflictErr *planner.ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("Rename() error = %v, want ConflictError", err)
	}
	env.assertContent(t, "a.txt", "a.txt")
	env.assertContent(t, "taken.txt", "taken.txt")

	if _, err := env.eng.History(); err == nil {
		t.Error("expected no session after a rejected plan")
	}
}

func TestRename_NoChanges(t *testing.T) {
	env := setupTestEngine(t, backends[0])
	env.writeFiles(t, "a.txt")

	result, err := env.rename(t, nil, "a.txt")
	if err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if len(result.Clauses) != 0 || result.Session != nil {
		t.Errorf("expected a no-op, got %d clauses, session %+v", len(result.Clauses), result.Session)
	}
}
