package export

import (
	"fmt"
	"strings"

	"github.com/miaomiao/miaomiao/internal/activity"
)

// recentLimit caps the message and cycle sections.
const recentLimit = 20

// MarkdownExporter renders the snapshot as a readable markdown document.
type MarkdownExporter struct{}

func (e *MarkdownExporter) Export(data ExportData) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# 喵喵酱的小本本\n\n")
	fmt.Fprintf(&b, "_Generated %s_\n\n", data.GeneratedAt.Local().Format("2006-01-02 15:04:05"))

	d := data.Display
	fmt.Fprintf(&b, "## Favorability\n\n")
	fmt.Fprintf(&b, "| Tier | %s |\n", d.Label)
	fmt.Fprintf(&b, "| Score | %d |\n", d.Score)
	fmt.Fprintf(&b, "| Hearts | %s |\n", hearts(d.Hearts))
	if len(data.Favorability.Unlocks) > 0 {
		fmt.Fprintf(&b, "| Unlocked | %s |\n", strings.Join(data.Favorability.Unlocks, ", "))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Activity\n\n")
	if data.Activity.TotalSamples == 0 {
		b.WriteString("No samples yet.\n\n")
	} else {
		fmt.Fprintf(&b, "%d samples.\n\n", data.Activity.TotalSamples)
		b.WriteString("| Category | Share | |\n|---|---:|---|\n")
		for _, r := range data.Ranking {
			if r.Percent <= 0 {
				continue
			}
			fmt.Fprintf(&b, "| %s | %.1f%% | `%s` |\n", r.Category, r.Percent, activity.Bar(r.Percent))
		}
		b.WriteString("\n")
	}

	if msgs := tail(data.Messages, recentLimit); len(msgs) > 0 {
		fmt.Fprintf(&b, "## Recent Comments\n\n")
		for _, m := range msgs {
			fmt.Fprintf(&b, "- %s %s\n", m.Timestamp.Local().Format("01-02 15:04"), oneLine(m.Text))
		}
		b.WriteString("\n")
	}

	if len(data.Cycles) > 0 {
		fmt.Fprintf(&b, "## Cycle Journal\n\n")
		b.WriteString("| Time | Outcome | Δ | Text |\n|---|---|---:|---|\n")
		cycles := data.Cycles
		if len(cycles) > recentLimit {
			cycles = cycles[:recentLimit]
		}
		for _, c := range cycles {
			fmt.Fprintf(&b, "| %s | %s | %+d | %s |\n",
				c.StartedAt.Local().Format("01-02 15:04"), c.Outcome, c.Delta,
				strings.ReplaceAll(oneLine(c.DisplayText), "|", "\\|"))
		}
		b.WriteString("\n")
	}

	return b.String(), nil
}

func hearts(n int) string {
	return strings.Repeat("❤", n) + strings.Repeat("♡", 5-min(n, 5))
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func tail[T any](s []T, n int) []T {
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}
