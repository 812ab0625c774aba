package state

import "time"

// Status is the lifecycle stage of a session.
type Status string

const (
	// StatusRunning means renames are being applied. Seen after a crash.
	StatusRunning Status = "running"

	// StatusApplied means every scheduled rename succeeded.
	StatusApplied Status = "applied"

	// StatusPartial means execution stopped on a failed rename.
	StatusPartial Status = "partial"

	// StatusUndoPartial means an undo stopped before reverting everything.
	StatusUndoPartial Status = "undo-partial"
)

// Session describes the latest rename session.
type Session struct {
	// ID is the session's ULID; it also names the journal
	ID string `json:"id"`

	// Journal is the backend holding the session's journal ("file" or "sqlite")
	Journal string `json:"journal"`

	// StartedAt is when the session began executing
	StartedAt time.Time `json:"startedAt"`

	// UpdatedAt is when the status last changed
	UpdatedAt time.Time `json:"updatedAt"`

	// Status is how far the session got
	Status Status `json:"status"`

	// Moves is the number of planned moves, temporaries excluded
	Moves int `json:"moves"`
}

// NewSession creates a running session.
func NewSession(id, journal string, now time.Time, moves int) *Session {
	return &Session{
		ID:        id,
		Journal:   journal,
		StartedAt: now,
		UpdatedAt: now,
		Status:    StatusRunning,
		Moves:     moves,
	}
}

// Transition sets the status and bumps UpdatedAt.
func (s *Session) Transition(status Status, now time.Time) {
	s.Status = status
	s.UpdatedAt = now
}
