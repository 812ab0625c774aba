// Package inventory maps stable filesystem identities to current paths.
//
// An Inventory is the read-only snapshot of the world at the start of a
// rename session: every selected entry keyed by an Identity that survives
// renames (the inode number on Unix). The Scanner builds one from command
// line arguments.
package inventory

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
)

// Identity is a stable token for one filesystem entry, independent of its path.
type Identity uint64

// String renders the identity the way it appears in the editable text.
func (id Identity) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseIdentity parses a decimal identity.
func ParseIdentity(s string) (Identity, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid identity %q: %w", s, err)
	}
	return Identity(n), nil
}

// Inventory maps each Identity to the absolute, cleaned path it currently has.
type Inventory map[Identity]string

// Provider supplies a fresh inventory for one session.
type Provider interface {
	// CurrentPaths returns the current identity-to-path mapping.
	CurrentPaths() (Inventory, error)
}

// Static is a Provider over a fixed mapping.
type Static Inventory

// CurrentPaths returns a copy of the fixed mapping with cleaned paths.
func (s Static) CurrentPaths() (Inventory, error) {
	inv := make(Inventory, len(s))
	for id, path := range s {
		inv[id] = filepath.Clean(path)
	}
	return inv, nil
}

// Identities returns the identities in ascending order.
func (inv Inventory) Identities() []Identity {
	ids := make([]Identity, 0, len(inv))
	for id := range inv {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ByPath returns the reverse mapping from path to identity.
func (inv Inventory) ByPath() map[string]Identity {
	byPath := make(map[string]Identity, len(inv))
	for id, path := range inv {
		byPath[path] = id
	}
	return byPath
}

// SplitPath splits a cleaned path into its parent directory and leaf name.
// The root (and the empty path) has an empty leaf name.
func SplitPath(path string) (parent, name string) {
	if path == "" {
		return "", ""
	}
	cleaned := filepath.Clean(path)
	parent = filepath.Dir(cleaned)
	if parent == cleaned {
		return cleaned, ""
	}
	return parent, filepath.Base(cleaned)
}
