package state

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danieljhkim/edren/internal/fsops"
)

// StateStore provides an interface for persisting the session record.
type StateStore interface {
	// LoadSession loads the latest session.
	// Returns os.ErrNotExist if there is none.
	LoadSession() (*Session, error)

	// SaveSession saves the session atomically.
	SaveSession(session *Session) error

	// DeleteSession deletes the session file.
	DeleteSession() error
}

// FileStateStore implements StateStore using a JSON file on disk.
type FileStateStore struct {
	fs   fsops.FS
	path string
}

// NewFileStateStore creates a new FileStateStore writing to path.
func NewFileStateStore(fs fsops.FS, path string) *FileStateStore {
	return &FileStateStore{fs: fs, path: path}
}

// LoadSession loads the latest session.
func (s *FileStateStore) LoadSession() (*Session, error) {
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("failed to read session state: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session state: %w", err)
	}
	if err := s.fs.ValidateIdentifier(session.ID); err != nil {
		return nil, fmt.Errorf("invalid session state: %w", err)
	}

	return &session, nil
}

// SaveSession saves the session atomically.
func (s *FileStateStore) SaveSession(session *Session) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}

	if err := s.fs.AtomicWrite(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write session state: %w", err)
	}

	return nil
}

// DeleteSession deletes the session file.
func (s *FileStateStore) DeleteSession() error {
	if err := s.fs.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session state: %w", err)
	}
	return nil
}
