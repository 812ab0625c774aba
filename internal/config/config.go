package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Journal backends.
const (
	JournalFile   = "file"
	JournalSQLite = "sqlite"
)

// Config is the user configuration read from config.yaml.
type Config struct {
	// Editor is the command used to edit listings. Empty means auto-detect.
	Editor string `yaml:"editor,omitempty"`

	// Journal selects the journal backend: "file" or "sqlite"
	Journal string `yaml:"journal,omitempty"`

	// Platform selects the filename rules: auto, linux, macos, windows, universal
	Platform string `yaml:"platform,omitempty"`

	// Siblings adds every entry next to a selected one to the listing
	Siblings bool `yaml:"siblings,omitempty"`

	// StrictIdentity rejects listing lines with a blank identity
	StrictIdentity bool `yaml:"strict_identity,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Journal:  JournalFile,
		Platform: "auto",
	}
}

// Load reads the config file at path on top of the defaults.
// A missing file is not an error. EDREN_EDITOR overrides the editor setting.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if editor := os.Getenv("EDREN_EDITOR"); editor != "" {
		cfg.Editor = editor
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	c.Journal = strings.ToLower(strings.TrimSpace(c.Journal))
	if c.Journal == "" {
		c.Journal = JournalFile
	}
	if c.Journal != JournalFile && c.Journal != JournalSQLite {
		return fmt.Errorf("unknown journal backend %q (want %q or %q)", c.Journal, JournalFile, JournalSQLite)
	}
	return nil
}
