// Package cli defines the Cobra command tree for the miaomiao CLI.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// version, commit, date are set via -ldflags at build time.
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// configFlag overrides the config file location for every command.
var configFlag string

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "miaomiao",
	Short: "A desktop cat that watches your screen and comments on it",
	Long: `Miaomiao periodically takes a screenshot, asks a vision model what you are
up to, and answers in character as a cat whose mood depends on how much it
likes you.

It keeps three records across restarts: a favorability score, a rolling
activity profile, and the last comments it made.

Run 'miaomiao config init' to write a starter config, then 'miaomiao run'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute(v, c, d string) {
	version, commit, date = v, c, d
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file (default ~/.config/miaomiao/config.toml)")

	rootCmd.AddCommand(
		newRunCmd(),
		newAnalyzeCmd(),
		newStatsCmd(),
		newFavorCmd(),
		newHistoryCmd(),
		newExportCmd(),
		newPruneCmd(),
		newServeCmd(),
		newMCPCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "miaomiao %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
