package cli

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/miaomiao/miaomiao/internal/journal"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit  int
		since  time.Duration
		cycles bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the cat's recent comments",
		Long: `List the remembered comments, oldest first. With --cycles the analysis
journal is shown instead, newest first, including failed cycles; --since
narrows it to a recent window.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()

			if cycles {
				entries, err := recentCycles(a, limit, since)
				if err != nil {
					return fmt.Errorf("read journal: %w", err)
				}
				if asJSON {
					return writeJSON(out, entries)
				}
				if len(entries) == 0 {
					fmt.Fprintln(out, "No analyses yet.")
					return nil
				}
				for _, e := range entries {
					fmt.Fprintf(out, "%s  %-14s %+d  %s\n",
						e.StartedAt.Local().Format("01-02 15:04:05"), e.Outcome, e.Delta, oneLine(e.DisplayText))
				}
				return nil
			}

			entries := a.guard.Entries()
			if len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}
			if asJSON {
				return writeJSON(out, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "喵喵酱还没说过话呢~")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %s\n", e.Timestamp.Local().Format("01-02 15:04:05"), oneLine(e.Text))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")
	cmd.Flags().BoolVar(&cycles, "cycles", false, "show the analysis journal instead of comments")
	cmd.Flags().DurationVar(&since, "since", 0, "with --cycles, only cycles started within this window (e.g. 24h)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	return cmd
}

// recentCycles returns up to limit journal entries, newest first. A
// positive since restricts them to that window.
func recentCycles(a *app, limit int, since time.Duration) ([]journal.Entry, error) {
	if since <= 0 {
		return a.journal.Recent(limit)
	}
	entries, err := a.journal.Since(time.Now().Add(-since))
	if err != nil {
		return nil, err
	}
	slices.Reverse(entries)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
