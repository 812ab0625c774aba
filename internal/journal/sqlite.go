package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/danieljhkim/edren/internal/clock"
	"github.com/danieljhkim/edren/internal/inventory"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS renames (
  session     TEXT    NOT NULL,
  seq         INTEGER NOT NULL,
  identity    INTEGER NOT NULL,
  source      TEXT    NOT NULL,
  destination TEXT    NOT NULL,
  applied_at  INTEGER NOT NULL,
  undone_at   INTEGER,
  PRIMARY KEY (session, seq)
);
`

// SQLiteStore keeps every session's journal as rows of one SQLite database.
type SQLiteStore struct {
	path  string
	clock clock.Clock
}

// NewSQLiteStore creates a SQLiteStore backed by the database file at path.
func NewSQLiteStore(path string, clk clock.Clock) *SQLiteStore {
	return &SQLiteStore{path: path, clock: clk}
}

func (s *SQLiteStore) open() (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}
	// PRAGMAs are per connection
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		sqliteSchema,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialise journal database: %w", err)
		}
	}
	return db, nil
}

// Create starts an empty journal for session.
func (s *SQLiteStore) Create(session string) (Journal, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("DELETE FROM renames WHERE session = ?", session); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reset journal: %w", err)
	}
	return &sqliteJournal{db: db, session: session, clock: s.clock}, nil
}

// Open reopens the journal for session.
func (s *SQLiteStore) Open(session string) (Journal, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}

	var count int
	var last sql.NullInt64
	err = db.QueryRow("SELECT COUNT(*), MAX(seq) FROM renames WHERE session = ?", session).Scan(&count, &last)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	if count == 0 {
		db.Close()
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, session)
	}

	return &sqliteJournal{db: db, session: session, clock: s.clock, lastSeq: uint64(last.Int64)}, nil
}

// Remove deletes the journal rows for session.
func (s *SQLiteStore) Remove(session string) error {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec("DELETE FROM renames WHERE session = ?", session); err != nil {
		return fmt.Errorf("failed to remove journal: %w", err)
	}
	return nil
}

type sqliteJournal struct {
	db      *sql.DB
	session string
	clock   clock.Clock
	lastSeq uint64
}

func (j *sqliteJournal) Append(identity inventory.Identity, source, destination string) (Entry, error) {
	entry := Entry{
		Seq:         j.lastSeq + 1,
		Identity:    identity,
		Source:      source,
		Destination: destination,
		AppliedAt:   j.clock.Now().UTC(),
	}

	// Inode numbers use the full uint64 range; store the bit pattern
	_, err := j.db.Exec(
		`INSERT INTO renames (session, seq, identity, source, destination, applied_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		j.session, int64(entry.Seq), int64(identity), source, destination, entry.AppliedAt.UnixNano(),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to append journal entry: %w", err)
	}

	j.lastSeq = entry.Seq
	log.WithFields(log.Fields{
		"session": j.session,
		"seq":     entry.Seq,
	}).Debug("journal row inserted")
	return entry, nil
}

func (j *sqliteJournal) MarkUndone(seq uint64) error {
	res, err := j.db.Exec(
		"UPDATE renames SET undone_at = ? WHERE session = ? AND seq = ?",
		j.clock.Now().UTC().UnixNano(), j.session, int64(seq),
	)
	if err != nil {
		return fmt.Errorf("failed to mark journal entry %d undone: %w", seq, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: entry %d", ErrNotFound, seq)
	}
	return nil
}

func (j *sqliteJournal) Entries() ([]Entry, error) {
	rows, err := j.db.Query(
		`SELECT seq, identity, source, destination, applied_at, undone_at
		 FROM renames WHERE session = ? ORDER BY seq`,
		j.session,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			seq, identity, appliedAt int64
			undoneAt                 sql.NullInt64
			e                        Entry
		)
		if err := rows.Scan(&seq, &identity, &e.Source, &e.Destination, &appliedAt, &undoneAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		e.Seq = uint64(seq)
		e.Identity = inventory.Identity(uint64(identity))
		e.AppliedAt = time.Unix(0, appliedAt).UTC()
		e.Undone = undoneAt.Valid
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal rows: %w", err)
	}
	return entries, nil
}

func (j *sqliteJournal) Close() error {
	return j.db.Close()
}
