package planner

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/danieljhkim/edren/internal/codec"
	"github.com/danieljhkim/edren/internal/fsops"
	"github.com/danieljhkim/edren/internal/inventory"
)

// BuildPlan derives one Move per clause and validates the whole set.
//
// Every conflict is collected before failing, so the user can fix them all in
// one editing round. On conflict no plan is returned, only a *ConflictError.
func BuildPlan(clauses []codec.Clause, inv inventory.Inventory, fs fsops.FS) (*Plan, error) {
	plan := NewPlan(inv)

	for _, clause := range clauses {
		source := filepath.Clean(clause.OriginalPath)
		parent, _ := inventory.SplitPath(source)
		dest := filepath.Join(parent, clause.NewName)
		if dest == source {
			continue
		}
		plan.AddMove(Move{
			Identity:    clause.Identity,
			Source:      source,
			Destination: dest,
		})
	}

	sourceOwners := make(map[string][]int)
	destOwners := make(map[string][]int)
	for i, m := range plan.Moves {
		sourceOwners[m.Source] = append(sourceOwners[m.Source], i)
		destOwners[m.Destination] = append(destOwners[m.Destination], i)
	}

	for _, path := range sortedKeys(sourceOwners) {
		if owners := sourceOwners[path]; len(owners) > 1 {
			plan.AddConflict(Conflict{
				Path:     path,
				Reason:   "Several entries claim the same source path",
				Existing: path,
				Incoming: plan.describeOwners(owners),
			})
		}
	}

	checker := NewConflictChecker(fs, plan)
	for _, path := range sortedKeys(destOwners) {
		owners := destOwners[path]
		if len(owners) > 1 {
			plan.AddConflict(Conflict{
				Path:     path,
				Reason:   "Several entries would be renamed to the same path",
				Existing: "none",
				Incoming: plan.describeOwners(owners),
			})
			continue
		}
		if conflict := checker.CheckDestination(plan.Moves[owners[0]]); conflict != nil {
			plan.AddConflict(*conflict)
		}
	}

	if plan.HasConflicts() {
		return nil, &ConflictError{Conflicts: plan.Conflicts}
	}
	return plan, nil
}

func (p *Plan) describeOwners(owners []int) string {
	sources := make([]string, 0, len(owners))
	for _, i := range owners {
		sources = append(sources, fmt.Sprintf("%s (%s)", p.Moves[i].Source, p.Moves[i].Identity))
	}
	return strings.Join(sources, ", ")
}

func sortedKeys(m map[string][]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
