package engine

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Preview renders the edit as a unified diff of the listing.
func Preview(listing, edited string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(listing),
		B:        difflib.SplitLines(edited),
		FromFile: "listing",
		ToFile:   "edited",
		Context:  1,
	}
	return difflib.GetUnifiedDiffString(diff)
}
