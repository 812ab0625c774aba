package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/danieljhkim/edren/internal/engine"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the latest session's journal",
	Long: `Show the latest rename session and every rename it journaled, in the
order they were applied. Temporary names used to break cycles appear as
their own entries.`,
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

		result, err := eng.History()
		if errors.Is(err, engine.ErrNoSession) {
			if jsonOutput {
				return outputJSON(struct{}{})
			}
			PrintEmptyState("No rename session recorded")
			return nil
		}
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		s := result.Session
		PrintSection("Session")
		PrintLabelValue("ID", s.ID)
		PrintLabelValue("Status", string(s.Status))
		PrintLabelValue("Started", fmt.Sprintf("%s (%s)", s.StartedAt.Local().Format("2006-01-02 15:04:05"), humanize.Time(s.StartedAt)))
		PrintLabelValue("Journal", s.Journal)
		PrintLabelValue("Moves", strconv.Itoa(s.Moves))

		if len(result.Entries) == 0 {
			PrintEmptyState("Journal is empty")
			return nil
		}

		PrintSection("Renames")
		rows := make([][]string, 0, len(result.Entries))
		for _, e := range result.Entries {
			undone := ""
			if e.Undone {
				undone = "yes"
			}
			rows = append(rows, []string{
				strconv.FormatUint(e.Seq, 10),
				e.Identity.String(),
				e.Source,
				e.Destination,
				humanize.Time(e.AppliedAt),
				undone,
			})
		}
		return PrintTable([]string{"Seq", "Identity", "Source", "Destination", "Applied", "Undone"}, rows)
	},
}
