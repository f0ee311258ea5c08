// Package mcp exposes the cat to MCP clients over stdio: trigger an
// analysis and read the activity, favorability and comment records.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/miaomiao/miaomiao/internal/history"
	"github.com/miaomiao/miaomiao/internal/journal"
	"github.com/miaomiao/miaomiao/internal/pet"
)

// Journal is the read side of the cycle journal.
type Journal interface {
	Recent(limit int) ([]journal.Entry, error)
}

// Server holds the records the tools read from.
type Server struct {
	pet     *pet.Pet
	guard   *history.Guard
	journal Journal
}

// NewServer returns a Server. journal may be nil.
func NewServer(p *pet.Pet, guard *history.Guard, journal Journal) *Server {
	return &Server{pet: p, guard: guard, journal: journal}
}

// MCPServer builds the MCP server with every tool registered.
func (s *Server) MCPServer(version string) *server.MCPServer {
	srv := server.NewMCPServer("miaomiao", version, server.WithToolCapabilities(false))

	srv.AddTool(mcp.NewTool("analyze_screen",
		mcp.WithDescription("Take a screenshot, let the cat look at it and return her comment along with the favorability change."),
	), s.handleAnalyzeScreen)

	srv.AddTool(mcp.NewTool("activity_report",
		mcp.WithDescription("Return the histogram of what the user has been doing, averaged over all analyses."),
	), s.handleActivityReport)

	srv.AddTool(mcp.NewTool("favorability_status",
		mcp.WithDescription("Return the cat's current relationship tier, hearts and score."),
	), s.handleFavorabilityStatus)

	srv.AddTool(mcp.NewTool("recent_comments",
		mcp.WithDescription("List the cat's most recent comments, oldest first."),
		mcp.WithNumber("limit", mcp.Description("How many comments to return (default 5, max 20).")),
	), s.handleRecentComments)

	srv.AddTool(mcp.NewTool("cycle_history",
		mcp.WithDescription("List recent analysis cycles with their outcome and favorability delta, newest first."),
		mcp.WithNumber("limit", mcp.Description("How many cycles to return (default 10).")),
	), s.handleCycleHistory)

	return srv
}

// ServeStdio serves the tools on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio(version string) error {
	return server.ServeStdio(s.MCPServer(version))
}
