// Package fsops provides filesystem operations with safety guarantees.
//
// All filesystem access in edren goes through the FS interface. The default
// implementation is backed by an afero.Fs, so the same code runs against the
// real OS filesystem in production and an in-memory filesystem in tests.
//
// Key features:
//   - Renames that never clobber an existing destination
//   - Atomic writes using temp file + rename
//   - Identifier validation for session and file names
//   - Testable via the FS interface
package fsops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// File is an open file handle.
type File = afero.File

// FS provides an abstraction for filesystem operations.
// All filesystem mutations in edren must go through this interface.
type FS interface {
	// Lstat returns file info without following symlinks where supported.
	Lstat(path string) (os.FileInfo, error)

	// Exists checks if a path exists.
	Exists(path string) (bool, error)

	// Rename moves oldpath to newpath. It fails with an error wrapping
	// os.ErrExist if newpath is already occupied by a different entry.
	Rename(oldpath, newpath string) error

	// ReadDir returns the entries of a directory sorted by name.
	ReadDir(path string) ([]os.FileInfo, error)

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string, perm os.FileMode) error

	// Remove removes a file or empty directory.
	Remove(path string) error

	// OpenFile opens a file with the given flags.
	OpenFile(path string, flag int, perm os.FileMode) (File, error)

	// AtomicWrite writes data to path atomically using temp file + rename.
	AtomicWrite(path string, data []byte, perm os.FileMode) error

	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// ValidateIdentifier validates an identifier for safety.
	ValidateIdentifier(id string) error
}

// AferoFS implements FS on top of an afero.Fs.
type AferoFS struct {
	fs afero.Fs
}

// NewAferoFS wraps an afero.Fs.
func NewAferoFS(fs afero.Fs) *AferoFS {
	return &AferoFS{fs: fs}
}

// NewRealFS creates an FS backed by the operating system.
func NewRealFS() *AferoFS {
	return NewAferoFS(afero.NewOsFs())
}

// NewMemFS creates an FS backed by memory. Used by tests and dry runs.
func NewMemFS() *AferoFS {
	return NewAferoFS(afero.NewMemMapFs())
}

// Afero exposes the underlying afero.Fs.
func (fs *AferoFS) Afero() afero.Fs {
	return fs.fs
}

// Lstat returns file info without following symlinks where supported.
func (fs *AferoFS) Lstat(path string) (os.FileInfo, error) {
	if lstater, ok := fs.fs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(path)
		return info, err
	}
	return fs.fs.Stat(path)
}

// Exists checks if a path exists.
func (fs *AferoFS) Exists(path string) (bool, error) {
	_, err := fs.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Rename moves oldpath to newpath without overwriting.
//
// A case-only rename on a case-insensitive filesystem sees newpath as
// existing; it is allowed when both names resolve to the same file.
func (fs *AferoFS) Rename(oldpath, newpath string) error {
	oldInfo, err := fs.Lstat(oldpath)
	if err != nil {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: err}
	}

	newInfo, err := fs.Lstat(newpath)
	switch {
	case err == nil:
		if !os.SameFile(oldInfo, newInfo) {
			return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: os.ErrExist}
		}
	case !os.IsNotExist(err):
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: err}
	}

	return fs.fs.Rename(oldpath, newpath)
}

// ReadDir returns the entries of a directory sorted by name.
func (fs *AferoFS) ReadDir(path string) ([]os.FileInfo, error) {
	return afero.ReadDir(fs.fs, path)
}

// MkdirAll creates a directory and all parent directories.
func (fs *AferoFS) MkdirAll(path string, perm os.FileMode) error {
	return fs.fs.MkdirAll(path, perm)
}

// Remove removes a file or empty directory.
func (fs *AferoFS) Remove(path string) error {
	return fs.fs.Remove(path)
}

// OpenFile opens a file with the given flags.
func (fs *AferoFS) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	return fs.fs.OpenFile(path, flag, perm)
}

// AtomicWrite writes data to path atomically using temp file + rename.
func (fs *AferoFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := fs.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	// Temp file lives next to the target so the final rename stays on one volume
	tmpFile, err := afero.TempFile(fs.fs, dir, ".edren-tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = fs.fs.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := fs.fs.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	// Overwriting is intended here, so bypass the no-clobber Rename
	if err := fs.fs.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	tmpFile = nil
	return nil
}

// ReadFile reads the entire contents of a file.
func (fs *AferoFS) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(fs.fs, path)
}

// ValidateIdentifier validates an identifier (e.g., session ID) for safety.
// Returns an error if the identifier contains invalid characters or path traversal attempts.
func (fs *AferoFS) ValidateIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("invalid identifier: empty")
	}

	if strings.ContainsAny(id, `/\`) || strings.Contains(id, string(filepath.Separator)) {
		return fmt.Errorf("invalid identifier: must not contain path separators")
	}

	if id == "." || id == ".." || strings.HasPrefix(id, "..") {
		return fmt.Errorf("invalid identifier: path traversal not allowed")
	}

	return nil
}

// IsExist reports whether err says a rename destination was occupied.
func IsExist(err error) bool {
	return errors.Is(err, os.ErrExist)
}
