package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/miaomiao/miaomiao/internal/cycle"
	"github.com/miaomiao/miaomiao/internal/favor"
)

// printResult writes one cycle result as a speech line plus, when the
// score moved, a favorability line.
func printResult(w io.Writer, res cycle.Result) {
	fmt.Fprintf(w, "[%s] 🐱 %s\n", res.At.Local().Format("15:04:05"), res.Text)
	if res.Delta == 0 && !res.TierChanged {
		return
	}
	d := favor.TierDisplay(res.Score)
	fmt.Fprintf(w, "           favorability %+d → %d %s %s\n", res.Delta, res.Score, hearts(d.Hearts), d.Label)
}

// hearts renders n filled hearts out of the five tiers.
func hearts(n int) string {
	maxHearts := len(favor.Tiers) - 1
	if n < 0 {
		n = 0
	}
	if n > maxHearts {
		n = maxHearts
	}
	return strings.Repeat("❤", n) + strings.Repeat("♡", maxHearts-n)
}

// oneLine collapses whitespace so multi-line comments fit a listing row.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
