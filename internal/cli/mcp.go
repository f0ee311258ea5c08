package cli

import (
	"github.com/spf13/cobra"

	"github.com/miaomiao/miaomiao/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start an MCP server over stdio",
		Long: `Start a Model Context Protocol (MCP) server that exposes the cat as tools:

  analyze_screen       take a screenshot and get the cat's comment
  activity_report      the activity histogram
  favorability_status  score, tier, hearts and color
  recent_comments      the remembered comments
  cycle_history        the analysis journal

Configure in Claude Desktop's claude_desktop_config.json:

  {
    "mcpServers": {
      "miaomiao": {
        "command": "miaomiao",
        "args": ["mcp"]
      }
    }
  }`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.withPet(); err != nil {
				return err
			}

			return mcp.NewServer(a.pet, a.guard, a.journal).ServeStdio(version)
		},
	}
}
