// Package engine provides the core rename and undo workflows for edren.
//
// The engine package is the orchestration layer between CLI commands and the
// lower-level packages. A rename session runs the pipeline
// inventory → codec.Encode → editor → codec.Decode → planner.BuildPlan →
// planner.Scheduler → Execute, recording each physical rename in a journal.
// Undo replays the latest session's journal in reverse.
//
// Key components:
//   - Engine: Main orchestrator that coordinates all operations
//   - Rename/Execute: Plans and applies a session of renames
//   - Undo: Reverts the latest session from its journal
//   - History: Reports the latest session and its journal
package engine

import (
	"fmt"

	"github.com/danieljhkim/edren/internal/clock"
	"github.com/danieljhkim/edren/internal/codec"
	"github.com/danieljhkim/edren/internal/fsops"
	"github.com/danieljhkim/edren/internal/inventory"
	"github.com/danieljhkim/edren/internal/journal"
	"github.com/danieljhkim/edren/internal/planner"
	"github.com/danieljhkim/edren/internal/state"
)

// Engine orchestrates all edren operations.
// It is the main API surface called by the CLI.
type Engine struct {
	fs         fsops.FS
	stateStore state.StateStore
	journals   map[string]journal.Store
	backend    string
	clock      clock.Clock
	decoder    *codec.Decoder
	scheduler  *planner.Scheduler
	identify   inventory.IdentityFunc
}

// New creates a new Engine with the given dependencies.
//
// journals maps backend names to stores; new sessions use backend, while
// undo uses whichever backend the session was recorded with.
func New(
	fs fsops.FS,
	stateStore state.StateStore,
	journals map[string]journal.Store,
	backend string,
	clk clock.Clock,
	platform codec.Platform,
	opts codec.DecodeOptions,
) *Engine {
	return &Engine{
		fs:         fs,
		stateStore: stateStore,
		journals:   journals,
		backend:    backend,
		clock:      clk,
		decoder:    codec.NewDecoder(platform, opts),
		scheduler:  planner.NewScheduler(fs),
	}
}

// WithIdentityFunc lets undo confirm which entry sits at a journaled path.
// Without it, undo only reverts entries it finds at their destination.
func (e *Engine) WithIdentityFunc(identify inventory.IdentityFunc) *Engine {
	e.identify = identify
	return e
}

// WithScheduler replaces the scheduler. Used by tests to fix temporary names.
func (e *Engine) WithScheduler(s *planner.Scheduler) *Engine {
	e.scheduler = s
	return e
}

func (e *Engine) journalStore(backend string) (journal.Store, error) {
	store, ok := e.journals[backend]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
	return store, nil
}
