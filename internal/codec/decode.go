package codec

import (
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/danieljhkim/edren/internal/inventory"
)

// Clause is a validated request to give the entry at OriginalPath the leaf
// name NewName, within the same parent directory.
type Clause struct {
	Identity     inventory.Identity
	OriginalPath string
	NewName      string
}

// DecodeOptions tunes how lenient Decode is.
type DecodeOptions struct {
	// StrictIdentity rejects entry lines whose identity field is blank
	// instead of skipping them.
	StrictIdentity bool
}

// Decoder parses edited text for one platform.
type Decoder struct {
	platform Platform
	opts     DecodeOptions
}

// NewDecoder creates a Decoder.
func NewDecoder(platform Platform, opts DecodeOptions) *Decoder {
	return &Decoder{platform: platform, opts: opts}
}

// Decode parses text with the default options.
func Decode(text string, inv inventory.Inventory, platform Platform) ([]Clause, error) {
	return NewDecoder(platform, DecodeOptions{}).Decode(text, inv)
}

// Decode parses the edited text against inv and returns one Clause per
// renamed entry, in the order the entries appear in the text.
//
// Decoding is all-or-nothing: the first invalid entry line fails the whole
// parse and no clauses are returned. Lines that are not recognizable as
// entry lines are skipped. Entries missing from the text are unchanged.
func (d *Decoder) Decode(text string, inv inventory.Inventory) ([]Clause, error) {
	var clauses []Clause
	seen := make(map[inventory.Identity]int)
	parent := ""

	for i, raw := range strings.Split(text, "\n") {
		lineNo := i + 1
		line := strings.TrimSuffix(raw, "\r")

		tab := strings.IndexByte(line, '\t')
		if tab < 0 {
			if header := strings.TrimSpace(line); header != "" && filepath.IsAbs(header) {
				parent = filepath.Clean(header)
			}
			continue
		}

		idField, name := line[:tab], line[tab+1:]
		if idField == "" {
			if d.opts.StrictIdentity {
				return nil, &MalformedLineError{Line: lineNo, Text: line, Parent: parent, Reason: "missing identity"}
			}
			log.WithFields(log.Fields{"line": lineNo}).Debug("skipping entry line without identity")
			continue
		}
		if !isDigits(idField) {
			continue
		}
		if strings.HasPrefix(name, "\t") {
			return nil, &MalformedLineError{Line: lineNo, Text: line, Parent: parent, Reason: "several tabs between identity and name"}
		}
		if strings.Contains(name, "\t") {
			log.WithFields(log.Fields{"line": lineNo}).Debug("skipping entry line with a tab in the name")
			continue
		}

		id, err := inventory.ParseIdentity(idField)
		if err != nil {
			return nil, &MalformedLineError{Line: lineNo, Text: line, Parent: parent, Reason: "identity out of range"}
		}
		path, ok := inv[id]
		if !ok {
			return nil, &UnknownInodeError{Line: lineNo, Identity: id}
		}
		if first, dup := seen[id]; dup {
			return nil, &ValidationError{Line: lineNo, Identity: id, Name: name,
				Reason: "identity already listed on line " + strconv.Itoa(first)}
		}
		seen[id] = lineNo

		if _, current := inventory.SplitPath(path); name == current {
			continue
		}
		if err := d.platform.ValidateName(name); err != nil {
			return nil, &ValidationError{Line: lineNo, Identity: id, Name: name, Reason: err.Error()}
		}

		clauses = append(clauses, Clause{Identity: id, OriginalPath: path, NewName: name})
	}

	return clauses, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
