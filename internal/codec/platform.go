package codec

import (
	"fmt"
	"runtime"
	"strings"
	"unicode"
)

// Platform enumerates the naming rules that differ between operating systems.
// It is passed explicitly to Decode rather than read from the host.
type Platform struct {
	// Name identifies the platform in configuration and messages.
	Name string

	// Separators are characters that would split a name into a path.
	Separators string

	// Reserved are characters that cannot appear in a name.
	Reserved string

	// ControlChars rejects ASCII control characters.
	ControlChars bool

	// ReservedNames are device names that cannot be used, compared case-insensitively
	// and ignoring any extension.
	ReservedNames []string

	// NoTrailingDotOrSpace rejects names ending in '.' or ' '.
	NoTrailingDotOrSpace bool
}

var windowsReservedNames = []string{
	"CON", "PRN", "AUX", "NUL",
	"COM1", "COM2", "COM3", "COM4", "COM5", "COM6", "COM7", "COM8", "COM9",
	"LPT1", "LPT2", "LPT3", "LPT4", "LPT5", "LPT6", "LPT7", "LPT8", "LPT9",
}

var (
	// Linux forbids the slash and NUL.
	Linux = Platform{
		Name:       "linux",
		Separators: "/",
		Reserved:   "\x00",
	}

	// MacOS additionally forbids the colon.
	MacOS = Platform{
		Name:       "macos",
		Separators: "/",
		Reserved:   ":\x00",
	}

	// Windows forbids both separators and the shell metacharacters.
	Windows = Platform{
		Name:                 "windows",
		Separators:           `/\`,
		Reserved:             `:*?"<>|`,
		ControlChars:         true,
		ReservedNames:        windowsReservedNames,
		NoTrailingDotOrSpace: true,
	}

	// Universal accepts only names valid on every supported platform.
	Universal = Platform{
		Name:                 "universal",
		Separators:           `/\`,
		Reserved:             `:*?"<>|`,
		ControlChars:         true,
		ReservedNames:        windowsReservedNames,
		NoTrailingDotOrSpace: true,
	}
)

// PlatformByName returns the platform with the given name. "auto" and ""
// select the host platform.
func PlatformByName(name string) (Platform, error) {
	switch strings.ToLower(name) {
	case "", "auto":
		return HostPlatform(), nil
	case "linux":
		return Linux, nil
	case "macos", "darwin":
		return MacOS, nil
	case "windows":
		return Windows, nil
	case "universal":
		return Universal, nil
	default:
		return Platform{}, fmt.Errorf("unknown platform %q", name)
	}
}

// HostPlatform returns the rules for the operating system we run on.
func HostPlatform() Platform {
	switch runtime.GOOS {
	case "windows":
		return Windows
	case "darwin", "ios":
		return MacOS
	default:
		return Linux
	}
}

// ValidateName checks that name is usable as a leaf name on p.
func (p Platform) ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name is empty")
	}
	if name == "." || name == ".." {
		return fmt.Errorf("name %q is reserved", name)
	}
	if i := strings.IndexAny(name, p.Separators); i >= 0 {
		return fmt.Errorf("name %q contains the path separator %q", name, name[i])
	}
	if i := strings.IndexAny(name, p.Reserved); i >= 0 {
		return fmt.Errorf("name %q contains the reserved character %q", name, name[i])
	}
	if p.ControlChars {
		for _, r := range name {
			if r < 0x20 || r == 0x7f {
				return fmt.Errorf("name %q contains a control character", name)
			}
		}
	}
	if p.NoTrailingDotOrSpace {
		last := rune(name[len(name)-1])
		if last == '.' || unicode.IsSpace(last) {
			return fmt.Errorf("name %q ends with a dot or a space", name)
		}
	}
	if len(p.ReservedNames) > 0 {
		stem := name
		if i := strings.IndexByte(stem, '.'); i >= 0 {
			stem = stem[:i]
		}
		stem = strings.TrimRight(stem, " ")
		for _, reserved := range p.ReservedNames {
			if strings.EqualFold(stem, reserved) {
				return fmt.Errorf("name %q is a reserved device name on %s", name, p.Name)
			}
		}
	}
	return nil
}
