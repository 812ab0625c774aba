package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/danieljhkim/edren/internal/journal"
	"github.com/danieljhkim/edren/internal/planner"
	"github.com/danieljhkim/edren/internal/state"
)

// Execute applies a schedule step by step, journaling each rename durably
// before the next one starts.
//
// The first failing rename aborts the session: nothing after it is attempted
// and the returned *ExecutionError lists the renames that did happen. If the
// journal cannot record a rename, that rename is reverted so the journal
// never lags the filesystem. moves is the number of planned moves, recorded
// in the session for display.
func (e *Engine) Execute(ctx context.Context, sched *planner.Schedule, moves int) (*ExecuteResult, error) {
	store, err := e.journalStore(e.backend)
	if err != nil {
		return nil, err
	}

	if err := e.discardPrevious(); err != nil {
		return nil, err
	}

	session := state.NewSession(e.clock.NewID(), e.backend, e.clock.Now(), moves)
	j, err := store.Create(session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create journal: %w", err)
	}
	defer j.Close()

	if err := e.stateStore.SaveSession(session); err != nil {
		_ = store.Remove(session.ID)
		return nil, err
	}

	logger := log.WithField("session", session.ID)
	result := &ExecuteResult{Session: session, Applied: []journal.Entry{}}

	for _, step := range sched.Steps {
		if err := ctx.Err(); err != nil {
			return result, e.abort(store, session, step, result.Applied, err)
		}

		if err := e.fs.Rename(step.Source, step.Destination); err != nil {
			return result, e.abort(store, session, step, result.Applied, err)
		}

		entry, err := j.Append(step.Identity, step.Source, step.Destination)
		if err != nil {
			if rbErr := e.fs.Rename(step.Destination, step.Source); rbErr != nil {
				err = fmt.Errorf("%w; reverting the unrecorded rename also failed: %v", err, rbErr)
			}
			return result, e.abort(store, session, step, result.Applied, err)
		}
		result.Applied = append(result.Applied, entry)

		logger.WithFields(log.Fields{
			"seq":         entry.Seq,
			"source":      step.Source,
			"destination": step.Destination,
		}).Debug("renamed")
	}

	session.Transition(state.StatusApplied, e.clock.Now())
	if err := e.stateStore.SaveSession(session); err != nil {
		return result, err
	}

	logger.WithField("renames", len(result.Applied)).Info("session applied")
	return result, nil
}

// abort records a failed session and builds its *ExecutionError. A session
// that failed before any rename leaves nothing behind.
func (e *Engine) abort(store journal.Store, session *state.Session, step planner.Step, applied []journal.Entry, cause error) error {
	execErr := &ExecutionError{
		Session: session.ID,
		Step:    step,
		Applied: applied,
		Err:     cause,
	}

	if len(applied) == 0 {
		if err := store.Remove(session.ID); err != nil {
			log.WithError(err).Warn("failed to remove empty journal")
		}
		if err := e.stateStore.DeleteSession(); err != nil {
			log.WithError(err).Warn("failed to remove session state")
		}
		return execErr
	}

	session.Transition(state.StatusPartial, e.clock.Now())
	if err := e.stateStore.SaveSession(session); err != nil {
		log.WithError(err).Warn("failed to record partial session")
	}
	return execErr
}

// discardPrevious removes the latest session and its journal; a new session
// supersedes it.
func (e *Engine) discardPrevious() error {
	prev, err := e.stateStore.LoadSession()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load previous session: %w", err)
	}

	if prev.Status != state.StatusApplied {
		log.WithFields(log.Fields{
			"session": prev.ID,
			"status":  prev.Status,
		}).Warn("discarding journal of an unfinished session")
	}

	store, err := e.journalStore(prev.Journal)
	if err != nil {
		return err
	}
	if err := store.Remove(prev.ID); err != nil {
		return fmt.Errorf("failed to remove previous journal: %w", err)
	}
	return e.stateStore.DeleteSession()
}
