package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/miaomiao/miaomiao/internal/history"
)

func (s *Server) handleAnalyzeScreen(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, ok := s.pet.Analyze(ctx)
	if !ok {
		return mcp.NewToolResultError("an analysis is already in progress, try again shortly"), nil
	}
	if ctx.Err() != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis cancelled: %v", ctx.Err())), nil
	}

	var sb strings.Builder
	sb.WriteString(res.Text)
	fmt.Fprintf(&sb, "\n\n(outcome: %s, favorability %+d → %d", res.Outcome, res.Delta, res.Score)
	if res.TierChanged {
		sb.WriteString(", tier changed")
	}
	sb.WriteString(")")
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleActivityReport(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.pet.ActivityReport()), nil
}

func (s *Server) handleFavorabilityStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d := s.pet.FavorabilityDisplay()
	snap := s.pet.Engine().Snapshot()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Tier:    %s\n", d.Label)
	fmt.Fprintf(&sb, "Hearts:  %s\n", strings.Repeat("❤", d.Hearts)+strings.Repeat("♡", 5-d.Hearts))
	fmt.Fprintf(&sb, "Score:   %d\n", d.Score)
	if len(snap.Unlocks) > 0 {
		fmt.Fprintf(&sb, "Unlocked: %s\n", strings.Join(snap.Unlocks, ", "))
	}
	if n := len(snap.History); n > 0 {
		last := snap.History[n-1]
		fmt.Fprintf(&sb, "Last change: %+d (%s) at %s\n", last.Delta, strings.TrimSpace(last.Reason), last.Timestamp.Local().Format("2006-01-02 15:04"))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleRecentComments(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 5)
	if limit <= 0 || limit > history.Capacity {
		limit = history.Capacity
	}

	entries := s.guard.Entries()
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("No comments yet."), nil
	}

	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "[%s] %s\n", e.Timestamp.Local().Format("2006-01-02 15:04"), e.Text)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleCycleHistory(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.journal == nil {
		return mcp.NewToolResultError("cycle journal is not available"), nil
	}
	limit := req.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}

	cycles, err := s.journal.Recent(limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read journal: %v", err)), nil
	}
	if len(cycles) == 0 {
		return mcp.NewToolResultText("No cycles recorded."), nil
	}

	var sb strings.Builder
	for _, c := range cycles {
		fmt.Fprintf(&sb, "[%s] %s %+d (score %d)\n  %s\n",
			c.StartedAt.Local().Format("2006-01-02 15:04:05"), c.Outcome, c.Delta, c.Score,
			strings.Join(strings.Fields(c.DisplayText), " "))
		if c.Error != "" {
			fmt.Fprintf(&sb, "  error: %s\n", c.Error)
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}
