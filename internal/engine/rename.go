package engine

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/danieljhkim/edren/internal/codec"
	"github.com/danieljhkim/edren/internal/planner"
)

// Rename runs one rename session.
//
// Algorithm steps:
// 1. Snapshot the inventory
// 2. Encode it and hand the listing to the editor
// 3. Decode the edited text into clauses (all-or-nothing)
// 4. Build the plan, failing on any conflict before touching disk
// 5. Schedule the moves
// 6. Execute the schedule with a journal (if not DryRun)
//
// On error the result carries whatever stages completed, so callers can show
// the plan or the partially applied journal.
func (e *Engine) Rename(ctx context.Context, req *RenameRequest) (*RenameResult, error) {
	inv, err := req.Inventory.CurrentPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to collect entries: %w", err)
	}
	if len(inv) == 0 {
		return nil, ErrNothingToRename
	}
	if err := codec.CheckListable(inv); err != nil {
		return nil, err
	}

	result := &RenameResult{
		Inventory: inv,
		Listing:   codec.Encode(inv),
	}

	result.Edited, err = req.Editor.Edit(ctx, result.Listing)
	if err != nil {
		return result, fmt.Errorf("failed to edit listing: %w", err)
	}

	result.Clauses, err = e.decoder.Decode(result.Edited, inv)
	if err != nil {
		return result, fmt.Errorf("failed to read edited listing: %w", err)
	}

	result.Plan, err = planner.BuildPlan(result.Clauses, inv, e.fs)
	if err != nil {
		return result, err
	}

	result.Schedule, err = e.scheduler.Schedule(result.Plan)
	if err != nil {
		return result, fmt.Errorf("failed to schedule renames: %w", err)
	}

	log.WithFields(log.Fields{
		"entries":     len(inv),
		"clauses":     len(result.Clauses),
		"moves":       len(result.Plan.Moves),
		"steps":       len(result.Schedule.Steps),
		"temporaries": result.Schedule.Temporaries,
		"dryRun":      req.DryRun,
	}).Debug("rename planned")

	if req.DryRun || len(result.Schedule.Steps) == 0 {
		return result, nil
	}

	executed, err := e.Execute(ctx, result.Schedule, len(result.Plan.Moves))
	if executed != nil {
		result.Session = executed.Session
		result.Applied = executed.Applied
	}
	return result, err
}
