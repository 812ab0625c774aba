package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/edren/internal/editor"
	"github.com/danieljhkim/edren/internal/engine"
	"github.com/danieljhkim/edren/internal/fsops"
	"github.com/danieljhkim/edren/internal/inventory"
	"github.com/danieljhkim/edren/internal/planner"
)

var (
	renameSiblings bool
	renameDryRun   bool
	renamePlatform string
	renameStrict   bool
	renameEditor   string
)

var renameCmd = &cobra.Command{
	Use:   "rename [paths...]",
	Short: "Rename files by editing their names",
	Long: `Open the given files and directories in your editor, one per line as
<id><TAB><name>. Change the names, save and quit to apply the renames.

Paths may be globs ("src/**/*.go"). With no paths, the entries of the current
directory are listed. Lines you delete are left alone; names you keep are not
touched. Entries never move to another directory.`,
	Example: `  edren rename *.jpg
  edren rename --siblings notes/todo.md
  edren rename --dry-run 'photos/**/IMG_*'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("siblings") {
			cfg.Siblings = renameSiblings
		}
		if cmd.Flags().Changed("strict") {
			cfg.StrictIdentity = renameStrict
		}
		if renamePlatform != "" {
			cfg.Platform = renamePlatform
		}
		if renameEditor != "" {
			cfg.Editor = renameEditor
		}

		eng, err := newEngine(paths, cfg)
		if err != nil {
			return err
		}

		if len(args) == 0 {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get current directory: %w", err)
			}
			args = []string{filepath.Join(cwd, "*")}
		}

		command, err := editor.Resolve(cfg.Editor)
		if err != nil {
			return err
		}

		scanner := inventory.NewScanner(
			fsops.NewRealFS(),
			inventory.HostIdentityFunc(),
			args,
			inventory.ScanOptions{Siblings: cfg.Siblings},
		)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		result, err := eng.Rename(ctx, &engine.RenameRequest{
			Inventory: scanner,
			Editor:    editor.NewCommandEditor(command),
			DryRun:    renameDryRun,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		if len(result.Clauses) == 0 {
			PrintInfo("No names changed")
			return nil
		}

		if renameDryRun {
			diff, err := engine.Preview(result.Listing, result.Edited)
			if err != nil {
				return err
			}
			PrintSection("Edited listing")
			PrintDiff(diff)
			if err := printSteps(result.Schedule.Steps); err != nil {
				return err
			}
			PrintInfo(fmt.Sprintf("Dry run - would rename %s (%s)",
				PrintCount(len(result.Plan.Moves), "entry", "entries"),
				PrintCount(len(result.Schedule.Steps), "step", "steps")))
			return nil
		}

		PrintSuccess(fmt.Sprintf("Renamed %s", PrintCount(len(result.Plan.Moves), "entry", "entries")))
		PrintEmptyState("Run 'edren undo' to revert")
		return nil
	},
}

func printSteps(steps []planner.Step) error {
	PrintSection("Renames")
	rows := make([][]string, 0, len(steps))
	for i, s := range steps {
		rows = append(rows, []string{fmt.Sprint(i + 1), s.Source, s.Destination})
	}
	return PrintTable([]string{"#", "From", "To"}, rows)
}

func init() {
	renameCmd.Flags().BoolVarP(&renameSiblings, "siblings", "s", false, "Also list every entry next to the given ones")
	renameCmd.Flags().BoolVar(&renameDryRun, "dry-run", false, "Show the renames without performing them")
	renameCmd.Flags().StringVar(&renamePlatform, "platform", "", "Filename rules: auto, linux, macos, windows, universal")
	renameCmd.Flags().BoolVar(&renameStrict, "strict", false, "Reject listing lines with a blank id")
	renameCmd.Flags().StringVarP(&renameEditor, "editor", "e", "", "Editor command (overrides config and environment)")
}
