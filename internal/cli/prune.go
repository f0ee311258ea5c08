package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPruneCmd() *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old entries from the analysis journal",
		Long: `Keep only the newest --keep journaled cycles. The favorability, activity
and comment records are not touched; they cap themselves.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep < 0 {
				return fmt.Errorf("--keep must be >= 0")
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.journal.Prune(keep)
			if err != nil {
				return fmt.Errorf("prune journal: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d journal entr%s.\n", n, plural(n))
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 500, "number of newest cycles to keep")

	return cmd
}

func plural(n int64) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
