// Package codec converts between an inventory and the editable text listing.
//
// The listing groups entries by parent directory. Each entry line is the
// entry's identity, a tab, and its leaf name:
//
//	/usr/bin
//	1421832123	X11
//
//	/usr/lib
//	1549534358	X11
//	1981263235	games
//
// Header lines are printed only when the selection spans several parents.
// Decode validates the edited listing and yields one Clause per entry whose
// name changed.
package codec

import (
	"sort"
	"strings"

	"github.com/danieljhkim/edren/internal/inventory"
)

type encodedEntry struct {
	id   inventory.Identity
	name string
}

// CheckListable fails with *UnlistableError for the first path (by identity)
// that Encode cannot render losslessly. Such an inventory must not be encoded.
func CheckListable(inv inventory.Inventory) error {
	for _, id := range inv.Identities() {
		if path := inv[id]; strings.ContainsAny(path, "\t\n\r") {
			return &UnlistableError{Identity: id, Path: path}
		}
	}
	return nil
}

// Encode renders inv as editable text. An empty inventory encodes to "".
func Encode(inv inventory.Inventory) string {
	if len(inv) == 0 {
		return ""
	}

	groups := make(map[string][]encodedEntry)
	for id, path := range inv {
		parent, name := inventory.SplitPath(path)
		groups[parent] = append(groups[parent], encodedEntry{id: id, name: name})
	}

	parents := make([]string, 0, len(groups))
	for parent := range groups {
		parents = append(parents, parent)
	}
	sort.Strings(parents)
	showHeaders := len(parents) > 1

	var b strings.Builder
	for i, parent := range parents {
		if i > 0 {
			b.WriteString("\n")
		}
		if showHeaders {
			b.WriteString(parent)
			b.WriteString("\n")
		}

		entries := groups[parent]
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].name != entries[j].name {
				return entries[i].name < entries[j].name
			}
			return entries[i].id < entries[j].id
		})
		for _, e := range entries {
			b.WriteString(e.id.String())
			b.WriteString("\t")
			b.WriteString(e.name)
			b.WriteString("\n")
		}
	}
	return b.String()
}
