package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/miaomiao/miaomiao/internal/favor"
)

func newFavorCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "favor",
		Short: "Show how much the cat likes you",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			state := a.engine.Snapshot()
			d := favor.TierDisplay(state.Score)

			fmt.Fprintf(out, "Favorability: %d (%d..%d)\n", d.Score, favor.MinScore, favor.MaxScore)
			fmt.Fprintf(out, "Mood:         %s %s\n", hearts(d.Hearts), d.Label)
			fmt.Fprintf(out, "Last seen:    %s\n", state.LastInteraction.Local().Format("2006-01-02 15:04:05"))
			if len(state.Unlocks) > 0 {
				fmt.Fprintf(out, "Unlocked:     %v\n", state.Unlocks)
			}

			changes := state.History
			if limit >= 0 && len(changes) > limit {
				changes = changes[len(changes)-limit:]
			}
			if len(changes) == 0 {
				return nil
			}
			fmt.Fprintln(out, "\nRecent changes:")
			for _, c := range changes {
				fmt.Fprintf(out, "  %s  %+d → %3d  %s\n",
					c.Timestamp.Local().Format("01-02 15:04"), c.Delta, c.NewScore, c.Reason)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of recent score changes to show")

	return cmd
}
