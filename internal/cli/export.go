package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/miaomiao/miaomiao/internal/export"
)

func newExportCmd() *cobra.Command {
	var (
		format string
		output string
		cycles int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the cat's records as JSON or markdown",
		Long: `Render favorability, activity statistics, remembered comments and the
analysis journal in one document. Output is written to stdout unless
--output is given.

Examples:
  miaomiao export --format json > miaomiao.json
  miaomiao export --format markdown --output notebook.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, ok := export.Get(format)
			if !ok {
				return fmt.Errorf("unknown format %q; valid formats: %s", format, strings.Join(export.ValidFormats(), ", "))
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			journaled, err := a.journal.Recent(cycles)
			if err != nil {
				return fmt.Errorf("read journal: %w", err)
			}

			state := a.engine.Snapshot()
			doc, err := exp.Export(export.ExportData{
				GeneratedAt:  time.Now(),
				Favorability: state,
				Display:      a.engine.Display(),
				Activity:     a.tracker.Snapshot(),
				Ranking:      a.tracker.Ranking(),
				Messages:     a.guard.Entries(),
				Cycles:       journaled,
			})
			if err != nil {
				return fmt.Errorf("export %s: %w", format, err)
			}

			if output == "" {
				fmt.Fprint(cmd.OutOrStdout(), doc)
				return nil
			}
			if err := os.WriteFile(output, []byte(doc), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "output format: json, markdown")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	cmd.Flags().IntVar(&cycles, "cycles", 50, "journal entries to include (0 for all)")

	return cmd
}
