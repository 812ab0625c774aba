package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/danieljhkim/edren/internal/journal"
	"github.com/danieljhkim/edren/internal/state"
)

// Undo reverts the latest session by replaying its journal newest first.
//
// Each reverted entry is marked in the journal before the next one is
// touched, so an interrupted undo resumes where it stopped. An entry whose
// destination is gone while its source holds the same identity is taken as
// already reverted (a crash between the rename back and the mark). Any other
// entry at a journaled path stops the undo with an *UndoError. After a
// complete undo the journal and session are removed.
func (e *Engine) Undo(ctx context.Context, req *UndoRequest) (*UndoResult, error) {
	session, err := e.loadSession()
	if err != nil {
		return nil, err
	}

	store, err := e.journalStore(session.Journal)
	if err != nil {
		return nil, err
	}

	result := &UndoResult{Session: session}

	j, err := store.Open(session.ID)
	if errors.Is(err, journal.ErrNotFound) {
		result.Complete = true
		if !req.DryRun {
			return result, e.stateStore.DeleteSession()
		}
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer j.Close()

	entries, err := j.Entries()
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	pending := journal.Pending(entries)

	if req.DryRun {
		result.Reverted = pending
		result.Complete = len(pending) == 0
		return result, nil
	}

	logger := log.WithField("session", session.ID)
	for _, entry := range pending {
		if err := ctx.Err(); err != nil {
			return result, e.undoFailed(session, result, entry, err)
		}

		moved, err := e.revert(entry)
		if err != nil {
			return result, e.undoFailed(session, result, entry, err)
		}
		if err := j.MarkUndone(entry.Seq); err != nil {
			return result, e.undoFailed(session, result, entry, err)
		}

		if moved {
			result.Reverted = append(result.Reverted, entry)
		} else {
			result.AlreadyReverted = append(result.AlreadyReverted, entry)
		}
		logger.WithFields(log.Fields{
			"seq":   entry.Seq,
			"moved": moved,
		}).Debug("reverted")
	}

	result.Complete = true
	if err := j.Close(); err != nil {
		return result, fmt.Errorf("failed to close journal: %w", err)
	}
	if err := store.Remove(session.ID); err != nil {
		return result, err
	}
	if err := e.stateStore.DeleteSession(); err != nil {
		return result, err
	}

	logger.WithField("reverted", len(result.Reverted)+len(result.AlreadyReverted)).Info("session undone")
	return result, nil
}

// revert renames entry back. It returns false when the entry is already back
// at its source. An entry is only taken as already reverted when the
// identity at its source is the journaled one.
func (e *Engine) revert(entry journal.Entry) (bool, error) {
	atDest, err := e.fs.Exists(entry.Destination)
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", entry.Destination, err)
	}
	if atDest {
		if err := e.confirmIdentity(entry, entry.Destination); err != nil {
			return false, err
		}
		if err := e.fs.Rename(entry.Destination, entry.Source); err != nil {
			return false, err
		}
		return true, nil
	}

	atSource, err := e.fs.Exists(entry.Source)
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", entry.Source, err)
	}
	if !atSource {
		return false, fmt.Errorf("%s is gone and %s is empty: %w", entry.Destination, entry.Source, os.ErrNotExist)
	}
	if e.identify == nil {
		return false, fmt.Errorf("%s is gone and %s is occupied: %w", entry.Destination, entry.Source, ErrIdentityMismatch)
	}
	if err := e.confirmIdentity(entry, entry.Source); err != nil {
		return false, fmt.Errorf("%s is gone: %w", entry.Destination, err)
	}
	return false, nil
}

// confirmIdentity checks that path holds the journaled entry. It passes when
// no identity lookup is configured.
func (e *Engine) confirmIdentity(entry journal.Entry, path string) error {
	if e.identify == nil {
		return nil
	}
	id, err := e.identify(path)
	if err != nil {
		return fmt.Errorf("failed to identify %s: %w", path, err)
	}
	if id != entry.Identity {
		return fmt.Errorf("%s holds identity %s, journal expects %s: %w", path, id, entry.Identity, ErrIdentityMismatch)
	}
	return nil
}

func (e *Engine) undoFailed(session *state.Session, result *UndoResult, entry journal.Entry, cause error) error {
	session.Transition(state.StatusUndoPartial, e.clock.Now())
	if err := e.stateStore.SaveSession(session); err != nil {
		log.WithError(err).Warn("failed to record partial undo")
	}
	return &UndoError{
		Reached:  entry,
		Reverted: len(result.Reverted) + len(result.AlreadyReverted),
		Err:      cause,
	}
}

func (e *Engine) loadSession() (*state.Session, error) {
	session, err := e.stateStore.LoadSession()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return session, nil
}
