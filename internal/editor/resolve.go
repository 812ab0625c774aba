package editor

import (
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// knownEditors lists commands that block until the file is closed, in order
// of preference, per GOOS.
var knownEditors = map[string][]string{
	"linux": {
		"nano",
		"vim",
		"vi",
		"micro",
		"emacs -nw",
		"code --wait",
		"gedit --wait",
		"kate --block",
	},
	"darwin": {
		"nano",
		"vim",
		"vi",
		"code --wait",
		"subl --wait",
		"mate -w",
		"open -W -n -t",
	},
	"windows": {
		"code --wait",
		"notepad++ -multiInst -notabbar -nosession -noPlugin",
		"notepad",
	},
}

// Resolver finds the editor command to run.
type Resolver struct {
	// Configured is the editor setting from config; it wins when set
	Configured string

	// GOOS selects the list of known editors
	GOOS string

	Getenv   func(string) string
	LookPath func(string) (string, error)
}

// NewResolver creates a Resolver for the host.
func NewResolver(configured string) *Resolver {
	return &Resolver{
		Configured: configured,
		GOOS:       runtime.GOOS,
		Getenv:     os.Getenv,
		LookPath:   exec.LookPath,
	}
}

// Resolve returns the editor command split into fields.
//
// An explicit choice (config, VISUAL, EDITOR) that is not installed is an
// error rather than a silent fallback, so the user learns about the typo.
func (r *Resolver) Resolve() ([]string, error) {
	explicit := []struct{ source, command string }{
		{"config", r.Configured},
		{"VISUAL", r.Getenv("VISUAL")},
		{"EDITOR", r.Getenv("EDITOR")},
	}
	for _, c := range explicit {
		fields := strings.Fields(c.command)
		if len(fields) == 0 {
			continue
		}
		if _, err := r.LookPath(fields[0]); err != nil {
			return nil, &UninstalledEditorError{Name: fields[0], Source: c.source}
		}
		return fields, nil
	}

	for _, command := range knownEditors[r.GOOS] {
		fields := strings.Fields(command)
		if _, err := r.LookPath(fields[0]); err == nil {
			return fields, nil
		}
	}
	return nil, ErrNoEditor
}

// Resolve finds the editor command for the host. See Resolver.Resolve.
func Resolve(configured string) ([]string, error) {
	return NewResolver(configured).Resolve()
}
