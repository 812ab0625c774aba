package journal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/danieljhkim/edren/internal/clock"
	"github.com/danieljhkim/edren/internal/fsops"
	"github.com/danieljhkim/edren/internal/inventory"
)

const (
	recordMove = "move"
	recordUndo = "undo"
)

// record is one line of a JSON Lines journal.
type record struct {
	Kind        string             `json:"kind"`
	Seq         uint64             `json:"seq"`
	Identity    inventory.Identity `json:"identity,omitempty"`
	Source      string             `json:"source,omitempty"`
	Destination string             `json:"destination,omitempty"`
	At          time.Time          `json:"at"`
}

// FileStore keeps one JSON Lines file per session in a directory.
type FileStore struct {
	fs    fsops.FS
	dir   string
	clock clock.Clock
}

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(fs fsops.FS, dir string, clk clock.Clock) *FileStore {
	return &FileStore{fs: fs, dir: dir, clock: clk}
}

func (s *FileStore) path(session string) (string, error) {
	if err := s.fs.ValidateIdentifier(session); err != nil {
		return "", fmt.Errorf("invalid session ID: %w", err)
	}
	return filepath.Join(s.dir, session+".jsonl"), nil
}

// Create starts an empty journal for session.
func (s *FileStore) Create(session string) (Journal, error) {
	path, err := s.path(session)
	if err != nil {
		return nil, err
	}
	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}
	f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create journal: %w", err)
	}
	return &fileJournal{fs: s.fs, path: path, file: f, clock: s.clock}, nil
}

// Open reopens the journal for session, recovering its last sequence number.
func (s *FileStore) Open(session string) (Journal, error) {
	path, err := s.path(session)
	if err != nil {
		return nil, err
	}
	j := &fileJournal{fs: s.fs, path: path, clock: s.clock}

	entries, err := j.Entries()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrNotFound, path)
	}
	j.lastSeq = entries[len(entries)-1].Seq

	if err := s.repairTail(path); err != nil {
		return nil, err
	}

	j.file, err = s.fs.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return j, nil
}

// repairTail makes the file end on a line boundary so new records start on
// their own line. A torn final record is cut off; a complete one missing its
// newline gets it.
func (s *FileStore) repairTail(path string) error {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}
	if len(data) == 0 || data[len(data)-1] == '\n' {
		return nil
	}

	keep := bytes.LastIndexByte(data, '\n') + 1
	var rec record
	complete := json.Unmarshal(data[keep:], &rec) == nil

	f, err := s.fs.OpenFile(path, os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()

	if complete {
		_, err = f.WriteAt([]byte{'\n'}, int64(len(data)))
	} else {
		log.WithFields(log.Fields{"journal": path, "bytes": len(data) - keep}).Warn("truncating torn final journal record")
		err = f.Truncate(int64(keep))
	}
	if err != nil {
		return fmt.Errorf("failed to repair journal %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync journal %s: %w", path, err)
	}
	return nil
}

// Remove deletes the journal for session.
func (s *FileStore) Remove(session string) error {
	path, err := s.path(session)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove journal: %w", err)
	}
	return nil
}

type fileJournal struct {
	fs      fsops.FS
	path    string
	file    fsops.File
	clock   clock.Clock
	lastSeq uint64
}

func (j *fileJournal) Append(identity inventory.Identity, source, destination string) (Entry, error) {
	entry := Entry{
		Seq:         j.lastSeq + 1,
		Identity:    identity,
		Source:      source,
		Destination: destination,
		AppliedAt:   j.clock.Now().UTC(),
	}
	err := j.write(record{
		Kind:        recordMove,
		Seq:         entry.Seq,
		Identity:    identity,
		Source:      source,
		Destination: destination,
		At:          entry.AppliedAt,
	})
	if err != nil {
		return Entry{}, err
	}
	j.lastSeq = entry.Seq
	return entry, nil
}

func (j *fileJournal) MarkUndone(seq uint64) error {
	if seq == 0 || seq > j.lastSeq {
		return fmt.Errorf("%w: entry %d", ErrNotFound, seq)
	}
	return j.write(record{Kind: recordUndo, Seq: seq, At: j.clock.Now().UTC()})
}

// write appends one line and syncs it to stable storage.
func (j *fileJournal) write(rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal journal record: %w", err)
	}
	data = append(data, '\n')

	if _, err := j.file.Write(data); err != nil {
		return fmt.Errorf("failed to write journal %s: %w", j.path, err)
	}
	if err := j.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync journal %s: %w", j.path, err)
	}

	log.WithFields(log.Fields{
		"journal": j.path,
		"kind":    rec.Kind,
		"seq":     rec.Seq,
	}).Debug("journal record written")
	return nil
}

// Entries replays the file. A torn final line, left by a crash mid-write,
// is ignored; a bad line anywhere else is an error.
func (j *fileJournal) Entries() ([]Entry, error) {
	data, err := j.fs.ReadFile(j.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, j.path)
		}
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	var entries []Entry
	index := make(map[uint64]int)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			if isLastLine(data, lineNo) {
				log.WithField("journal", j.path).Warn("ignoring torn final journal record")
				break
			}
			return nil, fmt.Errorf("corrupt journal %s at line %d: %w", j.path, lineNo, err)
		}

		switch rec.Kind {
		case recordMove:
			index[rec.Seq] = len(entries)
			entries = append(entries, Entry{
				Seq:         rec.Seq,
				Identity:    rec.Identity,
				Source:      rec.Source,
				Destination: rec.Destination,
				AppliedAt:   rec.At,
			})
		case recordUndo:
			i, ok := index[rec.Seq]
			if !ok {
				return nil, fmt.Errorf("corrupt journal %s at line %d: undo of unknown entry %d", j.path, lineNo, rec.Seq)
			}
			entries[i].Undone = true
		default:
			return nil, fmt.Errorf("corrupt journal %s at line %d: unknown record kind %q", j.path, lineNo, rec.Kind)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan journal: %w", err)
	}
	return entries, nil
}

func (j *fileJournal) Close() error {
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}

// isLastLine reports whether lineNo (1-based) is the final line of data.
func isLastLine(data []byte, lineNo int) bool {
	lines := bytes.Count(data, []byte{'\n'})
	if len(data) > 0 && data[len(data)-1] != '\n' {
		lines++
	}
	return lineNo == lines
}
