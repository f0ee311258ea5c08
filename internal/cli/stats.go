package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show what you have been doing on screen",
		Long: `Print the activity histogram (the average share of each category over
every analysis so far) followed by a tally of journaled cycles by outcome.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, a.tracker.FormattedReport())

			total, err := a.journal.Count()
			if err != nil {
				return fmt.Errorf("count cycles: %w", err)
			}
			if total == 0 {
				return nil
			}
			byOutcome, err := a.journal.CountByOutcome()
			if err != nil {
				return fmt.Errorf("count cycles: %w", err)
			}
			outcomes := make([]string, 0, len(byOutcome))
			for o := range byOutcome {
				outcomes = append(outcomes, o)
			}
			sort.Slice(outcomes, func(i, j int) bool {
				if byOutcome[outcomes[i]] != byOutcome[outcomes[j]] {
					return byOutcome[outcomes[i]] > byOutcome[outcomes[j]]
				}
				return outcomes[i] < outcomes[j]
			})

			fmt.Fprintf(out, "\nJournaled cycles: %d\n", total)
			for _, o := range outcomes {
				fmt.Fprintf(out, "  %-16s %d\n", o, byOutcome[o])
			}
			return nil
		},
	}
}
