package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/danieljhkim/edren/internal/clock"
	"github.com/danieljhkim/edren/internal/codec"
	"github.com/danieljhkim/edren/internal/config"
	"github.com/danieljhkim/edren/internal/engine"
	"github.com/danieljhkim/edren/internal/fsops"
	"github.com/danieljhkim/edren/internal/inventory"
	"github.com/danieljhkim/edren/internal/journal"
	"github.com/danieljhkim/edren/internal/state"
)

// loadConfig resolves the data paths and reads config.yaml.
func loadConfig() (*config.Paths, *config.Config, error) {
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get config paths: %w", err)
	}

	if err := paths.EnsureDirectories(); err != nil {
		return nil, nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	cfg, err := config.Load(paths.Config)
	if err != nil {
		return nil, nil, err
	}
	return paths, cfg, nil
}

// newEngine creates a new engine with real implementations of all dependencies.
func newEngine(paths *config.Paths, cfg *config.Config) (*engine.Engine, error) {
	platform, err := codec.PlatformByName(cfg.Platform)
	if err != nil {
		return nil, err
	}

	fs := fsops.NewRealFS()
	clk := clock.NewRealClock()
	stateStore := state.NewFileStateStore(fs, paths.State)
	journals := map[string]journal.Store{
		config.JournalFile:   journal.NewFileStore(fs, paths.Journals, clk),
		config.JournalSQLite: journal.NewSQLiteStore(filepath.Join(paths.Journals, "journal.db"), clk),
	}

	return engine.New(
		fs,
		stateStore,
		journals,
		cfg.Journal,
		clk,
		platform,
		codec.DecodeOptions{StrictIdentity: cfg.StrictIdentity},
	).WithIdentityFunc(inventory.DurableIdentityFunc()), nil
}

// formatJSON formats a value as JSON.
func formatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// formatError formats an error for display.
func formatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// outputJSON outputs a value as JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
