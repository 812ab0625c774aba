// Package editor runs the interactive edit round-trip on a listing.
//
// The text is written to a temporary file, an external editor command is run
// on it with the terminal attached, and the file is read back once the
// command exits. The command is resolved from configuration, the VISUAL and
// EDITOR environment variables, or a list of editors known to work on the
// current platform.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// ErrNoEditor is returned when no editor command can be found.
var ErrNoEditor = errors.New("no text editor found")

// UninstalledEditorError reports an explicitly chosen editor that is not on PATH.
type UninstalledEditorError struct {
	// Name is the executable that was looked up
	Name string

	// Source says where the command came from (config, VISUAL, EDITOR)
	Source string
}

func (e *UninstalledEditorError) Error() string {
	return fmt.Sprintf("editor %q (from %s) is not installed; install it or change the setting", e.Name, e.Source)
}

// Editor opens text for interactive editing and returns the result.
// Edit blocks until the user finishes.
type Editor interface {
	Edit(ctx context.Context, text string) (string, error)
}

// Func adapts a function to the Editor interface.
type Func func(ctx context.Context, text string) (string, error)

// Edit calls f.
func (f Func) Edit(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// CommandEditor edits text by running an external command on a temp file.
type CommandEditor struct {
	// Command is the program and its leading arguments; the file path is appended
	Command []string

	// TempDir holds the temporary file. Empty means os.TempDir.
	TempDir string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewCommandEditor creates a CommandEditor attached to the process's terminal.
func NewCommandEditor(command []string) *CommandEditor {
	return &CommandEditor{
		Command: command,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Edit writes text to a temp file, runs the editor on it and reads it back.
func (e *CommandEditor) Edit(ctx context.Context, text string) (string, error) {
	if len(e.Command) == 0 {
		return "", ErrNoEditor
	}

	// The editor is a separate process and needs a real path on disk
	f, err := os.CreateTemp(e.TempDir, "edren-*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create listing file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(text); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write listing file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close listing file: %w", err)
	}

	args := append(append([]string{}, e.Command[1:]...), path)
	cmd := exec.CommandContext(ctx, e.Command[0], args...)
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	log.WithFields(log.Fields{
		"command": e.Command,
		"file":    filepath.Base(path),
	}).Debug("launching editor")

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("editor %s failed: %w", e.Command[0], err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read edited listing: %w", err)
	}
	return string(data), nil
}
