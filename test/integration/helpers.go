package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danieljhkim/edren/internal/clock"
	"github.com/danieljhkim/edren/internal/codec"
	"github.com/danieljhkim/edren/internal/config"
	"github.com/danieljhkim/edren/internal/editor"
	"github.com/danieljhkim/edren/internal/engine"
	"github.com/danieljhkim/edren/internal/fsops"
	"github.com/danieljhkim/edren/internal/inventory"
	"github.com/danieljhkim/edren/internal/journal"
	"github.com/danieljhkim/edren/internal/state"
)

// backends lists the journal backends every scenario runs against.
var backends = []string{config.JournalFile, config.JournalSQLite}

// testEnv is an engine wired to real disk under a temporary directory.
type testEnv struct {
	eng   *engine.Engine
	paths *config.Paths
	work  string
}

func setupTestEngine(t *testing.T, backend string) *testEnv {
	t.Helper()

	paths := config.PathsAt(filepath.Join(t.TempDir(), "edren"))
	if err := paths.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories() error = %v", err)
	}

	fs := fsops.NewRealFS()
	clk := clock.NewRealClock()
	journals := map[string]journal.Store{
		config.JournalFile:   journal.NewFileStore(fs, paths.Journals, clk),
		config.JournalSQLite: journal.NewSQLiteStore(filepath.Join(paths.Journals, "journal.db"), clk),
	}

	eng := engine.New(
		fs,
		state.NewFileStateStore(fs, paths.State),
		journals,
		backend,
		clk,
		codec.Universal,
		codec.DecodeOptions{},
	).WithIdentityFunc(inventory.DurableIdentityFunc())

	return &testEnv{eng: eng, paths: paths, work: t.TempDir()}
}

// path joins name onto the work directory.
func (env *testEnv) path(name string) string {
	return filepath.Join(env.work, filepath.FromSlash(name))
}

// writeFiles creates each file (content = its name) and any parent directories.
func (env *testEnv) writeFiles(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		p := env.path(name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(name), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

// scanner selects args relative to the work directory.
func (env *testEnv) scanner(args ...string) *inventory.Scanner {
	abs := make([]string, 0, len(args))
	for _, a := range args {
		abs = append(abs, env.path(a))
	}
	return inventory.NewScanner(fsops.NewRealFS(), inventory.HostIdentityFunc(), abs, inventory.ScanOptions{})
}

func (env *testEnv) rename(t *testing.T, renames map[string]string, args ...string) (*engine.RenameResult, error) {
	t.Helper()
	return env.eng.Rename(context.Background(), &engine.RenameRequest{
		Inventory: env.scanner(args...),
		Editor:    nameEditor(renames),
	})
}

// nameEditor replaces names on entry lines; header lines are left alone.
func nameEditor(renames map[string]string) editor.Editor {
	return editor.Func(func(ctx context.Context, text string) (string, error) {
		lines := strings.Split(text, "\n")
		for i, line := range lines {
			id, name, ok := strings.Cut(line, "\t")
			if !ok {
				continue
			}
			if to, found := renames[name]; found {
				lines[i] = id + "\t" + to
			}
		}
		return strings.Join(lines, "\n"), nil
	})
}

// assertContent checks that name holds the content written for want.
func (env *testEnv) assertContent(t *testing.T, name, want string) {
	t.Helper()
	got, err := os.ReadFile(env.path(name))
	if err != nil {
		t.Errorf("ReadFile(%s) error = %v", name, err)
		return
	}
	if string(got) != want {
		t.Errorf("%s holds %q, want %q", name, got, want)
	}
}

func (env *testEnv) assertMissing(t *testing.T, name string) {
	t.Helper()
	if _, err := os.Lstat(env.path(name)); !os.IsNotExist(err) {
		t.Errorf("expected %s to be gone, Lstat error = %v", name, err)
	}
}

// assertClean checks that no temporary names were left in dir.
func (env *testEnv) assertClean(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(env.path(dir))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".edren-") {
			t.Errorf("temporary entry left behind: %s", e.Name())
		}
	}
}
