package inventory

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	log "github.com/sirupsen/logrus"

	"github.com/danieljhkim/edren/internal/fsops"
)

var (
	// ErrNoMatch indicates a glob pattern matched nothing.
	ErrNoMatch = errors.New("pattern matched no entries")

	// ErrSharedIdentity indicates two distinct paths resolved to one identity (hard links).
	ErrSharedIdentity = errors.New("paths share an identity")
)

// ScanOptions controls how arguments expand into an inventory.
type ScanOptions struct {
	// Siblings adds every entry of each selected entry's parent directory.
	Siblings bool
}

// Scanner builds an Inventory from command line arguments.
type Scanner struct {
	fs       fsops.FS
	identify IdentityFunc
	glob     func(pattern string) ([]string, error)
	args     []string
	opts     ScanOptions
}

// NewScanner creates a Scanner over args. Arguments containing glob meta
// characters are expanded with doublestar semantics (`**` crosses directories).
func NewScanner(fs fsops.FS, identify IdentityFunc, args []string, opts ScanOptions) *Scanner {
	return &Scanner{
		fs:       fs,
		identify: identify,
		glob: func(pattern string) ([]string, error) {
			return doublestar.FilepathGlob(pattern)
		},
		args: args,
		opts: opts,
	}
}

// CurrentPaths expands the arguments and resolves each path's identity.
func (s *Scanner) CurrentPaths() (Inventory, error) {
	selected := make(map[string]bool)

	for _, arg := range s.args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %q: %w", arg, err)
		}

		if hasMeta(arg) {
			matches, err := s.glob(abs)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("%w: %s", ErrNoMatch, arg)
			}
			for _, m := range matches {
				selected[filepath.Clean(m)] = true
			}
			continue
		}

		exists, err := s.fs.Exists(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to check %s: %w", abs, err)
		}
		if !exists {
			return nil, fmt.Errorf("no such file or directory: %s", abs)
		}
		selected[abs] = true
	}

	if s.opts.Siblings {
		if err := s.addSiblings(selected); err != nil {
			return nil, err
		}
	}

	paths := make([]string, 0, len(selected))
	for p := range selected {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	inv := make(Inventory, len(paths))
	for _, p := range paths {
		id, err := s.identify(p)
		if err != nil {
			return nil, fmt.Errorf("failed to identify %s: %w", p, err)
		}
		if other, ok := inv[id]; ok {
			return nil, fmt.Errorf("%w: %s and %s (identity %s)", ErrSharedIdentity, other, p, id)
		}
		inv[id] = p
	}

	log.WithFields(log.Fields{"args": len(s.args), "entries": len(inv)}).Debug("inventory scanned")
	return inv, nil
}

// addSiblings adds the contents of each selected entry's parent directory.
func (s *Scanner) addSiblings(selected map[string]bool) error {
	parents := make(map[string]bool)
	for p := range selected {
		parent, name := SplitPath(p)
		if name == "" {
			continue
		}
		parents[parent] = true
	}

	for parent := range parents {
		entries, err := s.fs.ReadDir(parent)
		if err != nil {
			return fmt.Errorf("failed to list siblings in %s: %w", parent, err)
		}
		for _, entry := range entries {
			selected[filepath.Join(parent, entry.Name())] = true
		}
	}
	return nil
}

// hasMeta reports whether path contains glob meta characters.
func hasMeta(path string) bool {
	for i := 0; i < len(path); i++ {
		switch path[i] {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
