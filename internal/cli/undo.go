package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/edren/internal/engine"
	"github.com/danieljhkim/edren/internal/journal"
)

var undoDryRun bool

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Revert the latest rename session",
	Long: `Revert every rename of the latest session, newest first.

An interrupted undo can be run again; it picks up where it stopped.`,
	Example: `  edren undo
  edren undo --dry-run`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, cfg, err := loadConfig()
		if err != nil {
			return err
		}

		eng, err := newEngine(paths, cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		result, err := eng.Undo(ctx, &engine.UndoRequest{DryRun: undoDryRun})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		if undoDryRun {
			if len(result.Reverted) == 0 {
				PrintInfo("Nothing to undo")
				return nil
			}
			PrintSection("Would revert")
			printEntries(result.Reverted)
			return nil
		}

		if len(result.Reverted) == 0 && len(result.AlreadyReverted) == 0 {
			PrintInfo("Nothing to undo")
			return nil
		}

		PrintSuccess(fmt.Sprintf("Reverted %s", PrintCount(len(result.Reverted), "rename", "renames")))
		if n := len(result.AlreadyReverted); n > 0 {
			PrintEmptyState(fmt.Sprintf("%s already reverted on disk", PrintCount(n, "rename was", "renames were")))
		}
		return nil
	},
}

// printEntries lists journal entries as source -> destination reversed.
func printEntries(entries []journal.Entry) {
	items := make([]string, 0, len(entries))
	for _, e := range entries {
		items = append(items, fmt.Sprintf("%s -> %s", e.Destination, e.Source))
	}
	PrintList(items, 1)
}

func init() {
	undoCmd.Flags().BoolVar(&undoDryRun, "dry-run", false, "Show what would be reverted without touching disk")
}
