package activity

import (
	"fmt"
	"sort"
	"strings"
)

const (
	barWidth   = 20
	ruleWidth  = 30
	emptyState = "还没有活动数据记录哦~ 多使用一会儿吧！"
)

// Ranked is one category with its average percentage.
type Ranked struct {
	Category string
	Percent  float64
}

// Ranking returns all categories sorted by descending average, ties broken
// by the fixed category order.
func (t *Tracker) Ranking() []Ranked {
	avgs := t.CurrentAverages()
	out := make([]Ranked, 0, len(Categories))
	for _, c := range Categories {
		out = append(out, Ranked{Category: c, Percent: avgs[c]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Percent > out[j].Percent
	})
	return out
}

// FormattedReport renders the histogram for the stats window.
func (t *Tracker) FormattedReport() string {
	snap := t.Snapshot()
	if snap.TotalSamples == 0 {
		return emptyState
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 活动统计 (共分析 %d 次)\n", snap.TotalSamples)
	b.WriteString(strings.Repeat("=", ruleWidth) + "\n\n")

	for _, r := range t.Ranking() {
		if r.Percent <= 0 {
			continue
		}
		fmt.Fprintf(&b, "%-8s %s %.1f%%\n", r.Category, Bar(r.Percent), r.Percent)
	}

	b.WriteString("\n" + strings.Repeat("=", ruleWidth) + "\n")
	fmt.Fprintf(&b, "最后更新: %s", snap.LastUpdated.Local().Format("2006-01-02 15:04:05"))
	return b.String()
}

// Bar renders pct as floor(pct/5) filled ticks out of 20.
func Bar(pct float64) string {
	n := int(pct / 5)
	if n < 0 {
		n = 0
	}
	if n > barWidth {
		n = barWidth
	}
	return strings.Repeat("█", n) + strings.Repeat("░", barWidth-n)
}
