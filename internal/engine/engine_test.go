package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/edren/internal/clock"
	"github.com/danieljhkim/edren/internal/codec"
	"github.com/danieljhkim/edren/internal/config"
	"github.com/danieljhkim/edren/internal/editor"
	"github.com/danieljhkim/edren/internal/fsops"
	"github.com/danieljhkim/edren/internal/inventory"
	"github.com/danieljhkim/edren/internal/journal"
	"github.com/danieljhkim/edren/internal/planner"
	"github.com/danieljhkim/edren/internal/state"
)

// failingFS fails Rename for chosen sources.
type failingFS struct {
	fsops.FS
	failRename map[string]error
}

func (f *failingFS) Rename(oldpath, newpath string) error {
	if err, ok := f.failRename[oldpath]; ok {
		return err
	}
	return f.FS.Rename(oldpath, newpath)
}

// failingStore hands out journals whose Append fails after a number of calls.
type failingStore struct {
	journal.Store
	appendsBeforeFailure int
}

func (s *failingStore) Create(session string) (journal.Journal, error) {
	j, err := s.Store.Create(session)
	if err != nil {
		return nil, err
	}
	return &failingJournal{Journal: j, remaining: s.appendsBeforeFailure}, nil
}

type failingJournal struct {
	journal.Journal
	remaining int
}

func (j *failingJournal) Append(id inventory.Identity, source, destination string) (journal.Entry, error) {
	if j.remaining == 0 {
		return journal.Entry{}, errors.New("disk full")
	}
	j.remaining--
	return j.Journal.Append(id, source, destination)
}

type harness struct {
	fs     fsops.FS
	mem    *fsops.AferoFS
	state  *state.FileStateStore
	store  journal.Store
	clock  *clock.FakeClock
	engine *Engine

	// ids maps file content (the original path) to the entry's identity
	ids map[string]inventory.Identity
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mem := fsops.NewMemFS()
	h := &harness{
		fs:    mem,
		mem:   mem,
		clock: clock.NewFakeClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)),
		ids:   make(map[string]inventory.Identity),
	}
	h.state = state.NewFileStateStore(mem, "/edren/session.json")
	h.store = journal.NewFileStore(mem, "/edren/journals", h.clock)
	h.build()
	return h
}

func (h *harness) build() {
	h.engine = New(
		h.fs,
		h.state,
		map[string]journal.Store{config.JournalFile: h.store},
		config.JournalFile,
		h.clock,
		codec.Linux,
		codec.DecodeOptions{},
	).WithIdentityFunc(h.identify)
}

// identify stands in for inode lookup: files keep their original path as
// content, so content names the entry.
func (h *harness) identify(path string) (inventory.Identity, error) {
	data, err := h.mem.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return h.ids[string(data)], nil
}

// files creates one file per path whose content is the path itself.
func (h *harness) files(t *testing.T, inv inventory.Inventory) {
	t.Helper()
	for id, path := range inv {
		require.NoError(t, h.mem.AtomicWrite(path, []byte(path), 0644))
		h.ids[path] = id
	}
}

// contentAt returns the original path of the file now at path, or "".
func (h *harness) contentAt(t *testing.T, path string) string {
	t.Helper()
	data, err := h.fs.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return ""
	}
	require.NoError(t, err)
	return string(data)
}

func replaceWith(text string) editor.Editor {
	return editor.Func(func(ctx context.Context, listing string) (string, error) {
		return text, nil
	})
}

func TestRename_SwapAndUndo(t *testing.T) {
	h := newHarness(t)
	inv := inventory.Inventory{1: "/w/a", 2: "/w/b"}
	h.files(t, inv)

	var listing string
	ed := editor.Func(func(ctx context.Context, text string) (string, error) {
		listing = text
		return "1\tb\n2\ta\n", nil
	})

	result, err := h.engine.Rename(context.Background(), &RenameRequest{
		Inventory: inventory.Static(inv),
		Editor:    ed,
	})
	require.NoError(t, err)

	assert.Equal(t, "1\ta\n2\tb\n", listing)
	assert.Len(t, result.Plan.Moves, 2)
	assert.Len(t, result.Schedule.Steps, 3)
	assert.Len(t, result.Applied, 3)
	require.NotNil(t, result.Session)
	assert.Equal(t, state.StatusApplied, result.Session.Status)
	assert.Equal(t, 2, result.Session.Moves)

	assert.Equal(t, "/w/a", h.contentAt(t, "/w/b"))
	assert.Equal(t, "/w/b", h.contentAt(t, "/w/a"))

	history, err := h.engine.History()
	require.NoError(t, err)
	assert.Len(t, history.Entries, 3)

	undo, err := h.engine.Undo(context.Background(), &UndoRequest{})
	require.NoError(t, err)
	assert.True(t, undo.Complete)
	assert.Len(t, undo.Reverted, 3)
	assert.Equal(t, uint64(3), undo.Reverted[0].Seq)

	assert.Equal(t, "/w/a", h.contentAt(t, "/w/a"))
	assert.Equal(t, "/w/b", h.contentAt(t, "/w/b"))

	_, err = h.engine.History()
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = h.store.Open(result.Session.ID)
	assert.ErrorIs(t, err, journal.ErrNotFound)
}

func TestRename_SwapToNewNames(t *testing.T) {
	h := newHarness(t)
	inv := inventory.Inventory{1: "/a", 2: "/b"}
	h.files(t, inv)

	result, err := h.engine.Rename(context.Background(), &RenameRequest{
		Inventory: inventory.Static(inv),
		Editor:    replaceWith("1\tb_name\n2\ta_name\n"),
	})
	require.NoError(t, err)

	assert.Len(t, result.Applied, 2)
	assert.Equal(t, "/a", h.contentAt(t, "/b_name"))
	assert.Equal(t, "/b", h.contentAt(t, "/a_name"))
	assert.Empty(t, h.contentAt(t, "/a"))
}

func TestRename_DryRun(t *testing.T) {
	h := newHarness(t)
	inv := inventory.Inventory{1: "/w/a"}
	h.files(t, inv)

	result, err := h.engine.Rename(context.Background(), &RenameRequest{
		Inventory: inventory.Static(inv),
		Editor:    replaceWith("1\tz\n"),
		DryRun:    true,
	})
	require.NoError(t, err)
	assert.Len(t, result.Schedule.Steps, 1)
	assert.Nil(t, result.Session)
	assert.Equal(t, "/w/a", h.contentAt(t, "/w/a"))

	_, err = h.engine.History()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRename_NoChanges(t *testing.T) {
	h := newHarness(t)
	inv := inventory.Inventory{1: "/w/a", 2: "/x/b"}
	h.files(t, inv)

	result, err := h.engine.Rename(context.Background(), &RenameRequest{
		Inventory: inventory.Static(inv),
		Editor:    editor.Func(func(ctx context.Context, text string) (string, error) { return text, nil }),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Clauses)
	assert.Nil(t, result.Session)
}

func TestRename_EmptyInventory(t *testing.T) {
	h := newHarness(t)
	_, err := h.engine.Rename(context.Background(), &RenameRequest{
		Inventory: inventory.Static{},
		Editor:    replaceWith(""),
	})
	assert.ErrorIs(t, err, ErrNothingToRename)
}

func TestRename_RejectsBeforeTouchingDisk(t *testing.T) {
	inv := inventory.Inventory{1: "/w/a", 2: "/w/b"}

	tests := []struct {
		name    string
		edited  string
		wantErr error
	}{
		{name: "unknown identity", edited: "1\tz\n99\tq\n", wantErr: codec.ErrInvalidInput},
		{name: "malformed line", edited: "1\tz\n2\t\t\tq\n", wantErr: codec.ErrInvalidInput},
		{name: "bad name", edited: "1\tx/y\n", wantErr: codec.ErrInvalidInput},
		{name: "shared destination", edited: "1\tz\n2\tz\n", wantErr: planner.ErrConflict},
		{name: "onto an entry that stays", edited: "1\tb\n", wantErr: planner.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.files(t, inv)

			_, err := h.engine.Rename(context.Background(), &RenameRequest{
				Inventory: inventory.Static(inv),
				Editor:    replaceWith(tt.edited),
			})
			require.ErrorIs(t, err, tt.wantErr)

			assert.Equal(t, "/w/a", h.contentAt(t, "/w/a"))
			assert.Equal(t, "/w/b", h.contentAt(t, "/w/b"))
			_, err = h.engine.History()
			assert.ErrorIs(t, err, ErrNoSession)
		})
	}
}

func TestRename_EditorFailure(t *testing.T) {
	h := newHarness(t)
	inv := inventory.Inventory{1: "/w/a"}
	h.files(t, inv)

	boom := errors.New("editor crashed")
	result, err := h.engine.Rename(context.Background(), &RenameRequest{
		Inventory: inventory.Static(inv),
		Editor: editor.Func(func(ctx context.Context, text string) (string, error) {
			return "", boom
		}),
	})
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, result)
	assert.Equal(t, "1\ta\n", result.Listing)
}

// chain renames 1->2->3->4 in one directory; execution order is 3, 2, 1.
func chainFixture(t *testing.T, h *harness) inventory.Inventory {
	inv := inventory.Inventory{1: "/d/1", 2: "/d/2", 3: "/d/3"}
	h.files(t, inv)
	return inv
}

func TestExecute_FailureMidway(t *testing.T) {
	h := newHarness(t)
	inv := chainFixture(t, h)

	denied := &os.LinkError{Op: "rename", Old: "/d/2", New: "/d/3", Err: os.ErrPermission}
	h.fs = &failingFS{FS: h.mem, failRename: map[string]error{"/d/2": denied}}
	h.build()

	result, err := h.engine.Rename(context.Background(), &RenameRequest{
		Inventory: inventory.Static(inv),
		Editor:    replaceWith("1\t2\n2\t3\n3\t4\n"),
	})
	require.ErrorIs(t, err, ErrExecution)
	require.ErrorIs(t, err, os.ErrPermission)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "/d/2", execErr.Step.Source)
	require.Len(t, execErr.Applied, 1)
	assert.Equal(t, "/d/3", execErr.Applied[0].Source)
	assert.Len(t, result.Applied, 1)
	assert.Equal(t, state.StatusPartial, result.Session.Status)

	// Filesystem matches the journal: only 3 moved
	assert.Equal(t, "/d/1", h.contentAt(t, "/d/1"))
	assert.Equal(t, "/d/2", h.contentAt(t, "/d/2"))
	assert.Equal(t, "/d/3", h.contentAt(t, "/d/4"))
	assert.Empty(t, h.contentAt(t, "/d/3"))

	undo, err := h.engine.Undo(context.Background(), &UndoRequest{})
	require.NoError(t, err)
	assert.Len(t, undo.Reverted, 1)
	for _, path := range []string{"/d/1", "/d/2", "/d/3"} {
		assert.Equal(t, path, h.contentAt(t, path))
	}
	assert.Empty(t, h.contentAt(t, "/d/4"))
}

func TestExecute_FailureOnFirstStepLeavesNoSession(t *testing.T) {
	h := newHarness(t)
	inv := chainFixture(t, h)

	h.fs = &failingFS{FS: h.mem, failRename: map[string]error{"/d/3": os.ErrPermission}}
	h.build()

	_, err := h.engine.Rename(context.Background(), &RenameRequest{
		Inventory: inventory.Static(inv),
		Editor:    replaceWith("1\t2\n2\t3\n3\t4\n"),
	})
	require.ErrorIs(t, err, ErrExecution)

	_, err = h.engine.History()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestExecute_DestinationReappeared(t *testing.T) {
	h := newHarness(t)
	inv := inventory.Inventory{1: "/w/a"}
	h.files(t, inv)

	result, err := h.engine.Rename(context.Background(), &RenameRequest{
		Inventory: inventory.Static(inv),
		Editor:    replaceWith("1\tz\n"),
		DryRun:    true,
	})
	require.NoError(t, err)

	// Appears out-of-band between planning and execution
	require.NoError(t, h.mem.AtomicWrite("/w/z", []byte("intruder"), 0644))

	_, err = h.engine.Execute(context.Background(), result.Schedule, len(result.Plan.Moves))
	require.ErrorIs(t, err, ErrExecution)
	assert.True(t, fsops.IsExist(err))
	assert.Equal(t, "intruder", h.contentAt(t, "/w/z"))
	assert.Equal(t, "/w/a", h.contentAt(t, "/w/a"))
}

func TestExecute_JournalFailureRevertsRename(t *testing.T) {
	h := newHarness(t)
	inv := chainFixture(t, h)
	h.store = &failingStore{Store: h.store, appendsBeforeFailure: 1}
	h.build()

	_, err := h.engine.Rename(context.Background(), &RenameRequest{
		Inventory: inventory.Static(inv),
		Editor:    replaceWith("1\t2\n2\t3\n3\t4\n"),
	})
	require.ErrorIs(t, err, ErrExecution)
	assert.Contains(t, err.Error(), "disk full")

	// The second rename (2 -> 3) was undone because it could not be recorded
	assert.Equal(t, "/d/1", h.contentAt(t, "/d/1"))
	assert.Equal(t, "/d/2", h.contentAt(t, "/d/2"))
	assert.Equal(t, "/d/3", h.contentAt(t, "/d/4"))

	history, err := h.engine.History()
	require.NoError(t, err)
	assert.Len(t, history.Entries, 1)
}

func TestUndo_AfterCrashBetweenRenameAndMark(t *testing.T) {
	h := newHarness(t)
	inv := chainFixture(t, h)

	_, err := h.engine.Rename(context.Background(), &RenameRequest{
		Inventory: inventory.Static(inv),
		Editor:    replaceWith("1\t2\n2\t3\n3\t4\n"),
	})
	require.NoError(t, err)

	// The newest entry (1 -> 2) was renamed back but never marked
	require.NoError(t, h.mem.Rename("/d/2", "/d/1"))

	undo, err := h.engine.Undo(context.Background(), &UndoRequest{})
	require.NoError(t, err)
	require.Len(t, undo.AlreadyReverted, 1)
	assert.Equal(t, "/d/1", undo.AlreadyReverted[0].Source)
	assert.Len(t, undo.Reverted, 2)

	for _, path := range []string{"/d/1", "/d/2", "/d/3"} {
		assert.Equal(t, path, h.contentAt(t, path))
	}
}

func TestUndo_FailureThenRetry(t *testing.T) {
	h := newHarness(t)
	inv := chainFixture(t, h)

	_, err := h.engine.Rename(context.Background(), &RenameRequest{
		Inventory: inventory.Static(inv),
		Editor:    replaceWith("1\t2\n2\t3\n3\t4\n"),
	})
	require.NoError(t, err)

	// Someone moves entry 2 (now at /d/3) away; undo of 2 -> 3 cannot proceed
	require.NoError(t, h.mem.Rename("/d/3", "/d/elsewhere"))

	_, err = h.engine.Undo(context.Background(), &UndoRequest{})
	require.ErrorIs(t, err, ErrUndo)
	var undoErr *UndoError
	require.ErrorAs(t, err, &undoErr)
	assert.Equal(t, uint64(2), undoErr.Reached.Seq)
	assert.Equal(t, 1, undoErr.Reverted)

	history, err := h.engine.History()
	require.NoError(t, err)
	assert.Equal(t, state.StatusUndoPartial, history.Session.Status)
	assert.True(t, history.Entries[2].Undone)
	assert.False(t, history.Entries[1].Undone)

	// Put it back and retry from where undo stopped
	require.NoError(t, h.mem.Rename("/d/elsewhere", "/d/3"))
	undo, err := h.engine.Undo(context.Background(), &UndoRequest{})
	require.NoError(t, err)
	assert.True(t, undo.Complete)
	assert.Len(t, undo.Reverted, 2)

	for _, path := range []string{"/d/1", "/d/2", "/d/3"} {
		assert.Equal(t, path, h.contentAt(t, path))
	}
}

func TestUndo_SourceTakenByAnotherEntry(t *testing.T) {
	h := newHarness(t)
	inv := inventory.Inventory{1: "/w/a"}
	h.files(t, inv)

	_, err := h.engine.Rename(context.Background(), &RenameRequest{
		Inventory: inventory.Static(inv),
		Editor:    replaceWith("1\tx\n"),
	})
	require.NoError(t, err)

	// The renamed file is deleted and an unrelated one takes its old name
	require.NoError(t, h.mem.Remove("/w/x"))
	require.NoError(t, h.mem.AtomicWrite("/w/a", []byte("unrelated"), 0644))

	undo, err := h.engine.Undo(context.Background(), &UndoRequest{})
	require.ErrorIs(t, err, ErrUndo)
	require.ErrorIs(t, err, ErrIdentityMismatch)
	assert.False(t, undo.Complete)
	assert.Empty(t, undo.AlreadyReverted)
	assert.Equal(t, "unrelated", h.contentAt(t, "/w/a"))

	// The journal and session survive for inspection
	history, err := h.engine.History()
	require.NoError(t, err)
	assert.Equal(t, state.StatusUndoPartial, history.Session.Status)
	require.Len(t, history.Entries, 1)
	assert.False(t, history.Entries[0].Undone)
}

func TestUndo_DestinationTakenByAnotherEntry(t *testing.T) {
	h := newHarness(t)
	inv := inventory.Inventory{1: "/w/a"}
	h.files(t, inv)

	_, err := h.engine.Rename(context.Background(), &RenameRequest{
		Inventory: inventory.Static(inv),
		Editor:    replaceWith("1\tx\n"),
	})
	require.NoError(t, err)

	// The renamed file is replaced in place by an unrelated one
	require.NoError(t, h.mem.Remove("/w/x"))
	require.NoError(t, h.mem.AtomicWrite("/w/x", []byte("unrelated"), 0644))

	_, err = h.engine.Undo(context.Background(), &UndoRequest{})
	require.ErrorIs(t, err, ErrIdentityMismatch)
	assert.Equal(t, "unrelated", h.contentAt(t, "/w/x"))
	assert.Empty(t, h.contentAt(t, "/w/a"))
}

func TestUndo_WithoutIdentityLookupRefusesOccupiedSource(t *testing.T) {
	h := newHarness(t)
	inv := inventory.Inventory{1: "/w/a"}
	h.files(t, inv)

	_, err := h.engine.Rename(context.Background(), &RenameRequest{
		Inventory: inventory.Static(inv),
		Editor:    replaceWith("1\tx\n"),
	})
	require.NoError(t, err)
	require.NoError(t, h.mem.Rename("/w/x", "/w/a"))

	h.engine.WithIdentityFunc(nil)
	_, err = h.engine.Undo(context.Background(), &UndoRequest{})
	require.ErrorIs(t, err, ErrIdentityMismatch)
	assert.Equal(t, "/w/a", h.contentAt(t, "/w/a"))
}

func TestRename_RejectsUnlistableNames(t *testing.T) {
	h := newHarness(t)
	inv := inventory.Inventory{7: "/w/foo\nbar", 8: "/w/plain"}
	h.files(t, inv)

	called := false
	_, err := h.engine.Rename(context.Background(), &RenameRequest{
		Inventory: inventory.Static(inv),
		Editor: editor.Func(func(ctx context.Context, text string) (string, error) {
			called = true
			return text, nil
		}),
	})
	var unlistable *codec.UnlistableError
	require.ErrorAs(t, err, &unlistable)
	assert.Equal(t, inventory.Identity(7), unlistable.Identity)
	assert.False(t, called, "editor must not see the listing")
	assert.Equal(t, "/w/foo\nbar", h.contentAt(t, "/w/foo\nbar"))
}

func TestUndo_DryRun(t *testing.T) {
	h := newHarness(t)
	inv := inventory.Inventory{1: "/w/a"}
	h.files(t, inv)

	_, err := h.engine.Rename(context.Background(), &RenameRequest{
		Inventory: inventory.Static(inv),
		Editor:    replaceWith("1\tz\n"),
	})
	require.NoError(t, err)

	undo, err := h.engine.Undo(context.Background(), &UndoRequest{DryRun: true})
	require.NoError(t, err)
	assert.Len(t, undo.Reverted, 1)
	assert.Equal(t, "/w/a", h.contentAt(t, "/w/z"))

	_, err = h.engine.History()
	assert.NoError(t, err)
}

func TestUndo_NoSession(t *testing.T) {
	h := newHarness(t)
	_, err := h.engine.Undo(context.Background(), &UndoRequest{})
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRename_NewSessionSupersedesPrevious(t *testing.T) {
	h := newHarness(t)
	h.files(t, inventory.Inventory{1: "/w/a"})

	first, err := h.engine.Rename(context.Background(), &RenameRequest{
		Inventory: inventory.Static{1: "/w/a"},
		Editor:    replaceWith("1\tb\n"),
	})
	require.NoError(t, err)

	h.clock.Advance(time.Minute)
	second, err := h.engine.Rename(context.Background(), &RenameRequest{
		Inventory: inventory.Static{1: "/w/b"},
		Editor:    replaceWith("1\tc\n"),
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.Session.ID, second.Session.ID)

	_, err = h.store.Open(first.Session.ID)
	assert.ErrorIs(t, err, journal.ErrNotFound)

	// Undo only reverts the latest session
	_, err = h.engine.Undo(context.Background(), &UndoRequest{})
	require.NoError(t, err)
	assert.Equal(t, "/w/a", h.contentAt(t, "/w/b"))
}

func TestRename_ManyEntriesRotation(t *testing.T) {
	h := newHarness(t)
	inv := inventory.Inventory{}
	var edited strings.Builder
	const n = 12
	for i := 0; i < n; i++ {
		inv[inventory.Identity(i+1)] = fmt.Sprintf("/r/f%02d", i)
		fmt.Fprintf(&edited, "%d\tf%02d\n", i+1, (i+1)%n)
	}
	h.files(t, inv)

	result, err := h.engine.Rename(context.Background(), &RenameRequest{
		Inventory: inventory.Static(inv),
		Editor:    replaceWith(edited.String()),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Schedule.Temporaries)
	assert.Len(t, result.Applied, n+1)

	for i := 0; i < n; i++ {
		assert.Equal(t, fmt.Sprintf("/r/f%02d", i), h.contentAt(t, fmt.Sprintf("/r/f%02d", (i+1)%n)))
	}

	_, err = h.engine.Undo(context.Background(), &UndoRequest{})
	require.NoError(t, err)
	for _, path := range inv {
		assert.Equal(t, path, h.contentAt(t, path))
	}
}

func TestPreview(t *testing.T) {
	diff, err := Preview("1\ta\n2\tb\n", "1\ta\n2\tz\n")
	require.NoError(t, err)
	assert.Contains(t, diff, "-2\tb")
	assert.Contains(t, diff, "+2\tz")

	same, err := Preview("1\ta\n", "1\ta\n")
	require.NoError(t, err)
	assert.Empty(t, same)
}
