package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("EDREN_EDITOR", "")

	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("reads every key", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, `
editor: nvim -f
journal: SQLite
platform: windows
siblings: true
strict_identity: true
`))
		require.NoError(t, err)
		assert.Equal(t, &Config{
			Editor:         "nvim -f",
			Journal:        JournalSQLite,
			Platform:       "windows",
			Siblings:       true,
			StrictIdentity: true,
		}, cfg)
	})

	t.Run("partial file keeps other defaults", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, "siblings: true\n"))
		require.NoError(t, err)
		assert.Equal(t, JournalFile, cfg.Journal)
		assert.Equal(t, "auto", cfg.Platform)
		assert.True(t, cfg.Siblings)
	})

	t.Run("environment overrides editor", func(t *testing.T) {
		t.Setenv("EDREN_EDITOR", "micro")
		cfg, err := Load(writeConfig(t, "editor: vim\n"))
		require.NoError(t, err)
		assert.Equal(t, "micro", cfg.Editor)
	})

	t.Run("unknown journal backend", func(t *testing.T) {
		_, err := Load(writeConfig(t, "journal: postgres\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "postgres")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "editor: [unclosed\n"))
		require.Error(t, err)
	})
}
