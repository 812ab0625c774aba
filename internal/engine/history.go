package engine

import (
	"errors"
	"fmt"

	"github.com/danieljhkim/edren/internal/journal"
)

// History returns the latest session and its journal.
func (e *Engine) History() (*HistoryResult, error) {
	session, err := e.loadSession()
	if err != nil {
		return nil, err
	}

	store, err := e.journalStore(session.Journal)
	if err != nil {
		return nil, err
	}

	result := &HistoryResult{Session: session, Entries: []journal.Entry{}}

	j, err := store.Open(session.ID)
	if errors.Is(err, journal.ErrNotFound) {
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
	result.Entries = append(result.Entries, entries...)
	return result, nil
}
