// Package config manages edren configuration and filesystem paths.
//
// All edren data lives under one root directory, ~/.edren by default, which
// can be moved with EDREN_ROOT. It holds config.yaml, the session state file
// and the journals directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains all the filesystem paths used by edren.
type Paths struct {
	// Root is the base directory for all edren data (default: ~/.edren)
	Root string

	// Journals is the directory holding one journal per session
	Journals string

	// Config is the path to the global config file
	Config string

	// State is the path to the latest session's state file
	State string
}

// DefaultPaths returns the default paths for edren.
// Paths can be overridden with environment variables:
// - EDREN_ROOT: Override the root directory
func DefaultPaths() (*Paths, error) {
	root := os.Getenv("EDREN_ROOT")
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(home, ".edren")
	}
	return PathsAt(root), nil
}

// PathsAt lays out the edren paths under root.
func PathsAt(root string) *Paths {
	return &Paths{
		Root:     root,
		Journals: filepath.Join(root, "journals"),
		Config:   filepath.Join(root, "config.yaml"),
		State:    filepath.Join(root, "session.json"),
	}
}

// EnsureDirectories creates all necessary directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.Root, p.Journals} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
