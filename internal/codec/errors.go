package codec

import (
	"errors"
	"fmt"

	"github.com/danieljhkim/edren/internal/inventory"
)

var (
	// ErrInvalidInput is wrapped by every error Decode returns.
	ErrInvalidInput = errors.New("invalid edited text")

	// ErrUnlistable indicates an inventory path that cannot be written as a listing line.
	ErrUnlistable = errors.New("path cannot be listed")
)

// UnlistableError reports an inventory path holding a tab or line break,
// which would not survive the listing unchanged.
type UnlistableError struct {
	Identity inventory.Identity
	Path     string
}

func (e *UnlistableError) Error() string {
	return fmt.Sprintf("%v: identity %s: %q contains a tab or line break", ErrUnlistable, e.Identity, e.Path)
}

func (e *UnlistableError) Unwrap() error { return ErrUnlistable }

// ValidationError reports a new name that cannot be used.
type ValidationError struct {
	Line     int
	Identity inventory.Identity
	Name     string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("line %d: identity %s: %s", e.Line, e.Identity, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// UnknownInodeError reports an entry line whose identity is not in the inventory.
type UnknownInodeError struct {
	Line     int
	Identity inventory.Identity
}

func (e *UnknownInodeError) Error() string {
	return fmt.Sprintf("line %d: unknown identity %s", e.Line, e.Identity)
}

func (e *UnknownInodeError) Unwrap() error { return ErrInvalidInput }

// MalformedLineError reports a structurally broken entry line, such as
// several tabs between the identity and the name.
type MalformedLineError struct {
	Line   int
	Text   string
	Parent string
	Reason string
}

func (e *MalformedLineError) Error() string {
	if e.Parent != "" {
		return fmt.Sprintf("line %d (under %s): %s: %q", e.Line, e.Parent, e.Reason, e.Text)
	}
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

func (e *MalformedLineError) Unwrap() error { return ErrInvalidInput }
