package activity

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/miaomiao/miaomiao/internal/store"
)

func newTestTracker(t *testing.T) (*Tracker, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "activity.json")
	return NewTracker(store.NewSlot[Stats](path, nil), nil), path
}

func approx(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

func TestClassify_NoMatchIsOther(t *testing.T) {
	d := Classify("喵喵在发呆")
	if d[CategoryOther] != 100 {
		t.Errorf("other: got %v, want 100", d[CategoryOther])
	}
	if !approx(d.Sum(), 100, 1e-9) {
		t.Errorf("sum: got %v", d.Sum())
	}
}

func TestClassify_KeywordsNormalised(t *testing.T) {
	d := Classify("在 VSCode 里写代码，顺便开着 Chrome")
	if d[CategoryWork] <= d[CategoryBrowsing] {
		t.Errorf("work (%v) should outweigh browsing (%v)", d[CategoryWork], d[CategoryBrowsing])
	}
	if d[CategoryOther] != 0 {
		t.Errorf("other should be 0 when keywords match, got %v", d[CategoryOther])
	}
	if !approx(d.Sum(), 100, 1e-9) {
		t.Errorf("sum: got %v", d.Sum())
	}
}

func TestClassify_CaseInsensitive(t *testing.T) {
	d := Classify("Playing a GAME on STEAM")
	if d[CategoryGaming] != 100 {
		t.Errorf("gaming: got %v, want 100", d[CategoryGaming])
	}
}

func TestRecordSample_Normalises(t *testing.T) {
	tests := []struct {
		name string
		in   Distribution
	}{
		{"under", Distribution{CategoryWork: 3, CategoryGaming: 1}},
		{"over", Distribution{CategoryWork: 300, CategoryLearning: 150, CategoryOther: 50}},
		{"exact", Distribution{CategoryVideo: 100}},
		{"with unknown", Distribution{CategoryWork: 50, "摸鱼": 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, _ := newTestTracker(t)
			tr.RecordSample(tt.in, "")
			recent := tr.Recent(1)
			if len(recent) != 1 {
				t.Fatalf("recent: got %d entries", len(recent))
			}
			if sum := recent[0].Distribution.Sum(); !approx(sum, 100, 0.1) {
				t.Errorf("sum: got %v, want 100", sum)
			}
			if _, ok := recent[0].Distribution["摸鱼"]; ok {
				t.Error("unknown label should not be recorded")
			}
		})
	}
}

func TestRecordSample_AllZeroRecordedAsIs(t *testing.T) {
	tr, _ := newTestTracker(t)
	tr.RecordSample(Distribution{CategoryWork: 0}, "")
	if tr.TotalSamples() != 1 {
		t.Errorf("total: got %d, want 1", tr.TotalSamples())
	}
	if !tr.Recent(1)[0].Distribution.IsZero() {
		t.Error("expected zero distribution")
	}
}

func TestCurrentAverages(t *testing.T) {
	tr, _ := newTestTracker(t)

	avgs := tr.CurrentAverages()
	for _, c := range Categories {
		if avgs[c] != 0 {
			t.Errorf("%s: got %v before any sample", c, avgs[c])
		}
	}

	tr.RecordSample(Distribution{"A": 100, CategoryWork: 100}, "")
	tr.RecordSample(Distribution{CategoryWork: 0, CategoryLearning: 100}, "")

	avgs = tr.CurrentAverages()
	if avgs[CategoryWork] != 50.0 {
		t.Errorf("work: got %v, want 50.0", avgs[CategoryWork])
	}
	if avgs[CategoryLearning] != 50.0 {
		t.Errorf("learning: got %v, want 50.0", avgs[CategoryLearning])
	}
	if _, ok := avgs["A"]; ok {
		t.Error("unknown label leaked into averages")
	}
}

func TestCurrentAverages_ModelClassificationContribution(t *testing.T) {
	tr, _ := newTestTracker(t)
	tr.RecordSample(Distribution{CategoryGaming: 100}, "")

	before := tr.Snapshot().CategoryTotals[CategoryWork]
	d := Distribution{CategoryWork: 70, CategoryLearning: 30}
	for _, c := range Categories {
		if _, ok := d[c]; !ok {
			d[c] = 0
		}
	}
	tr.RecordSample(d, "")

	after := tr.Snapshot().CategoryTotals[CategoryWork]
	if after-before != 70 {
		t.Errorf("work total delta: got %v, want 70", after-before)
	}
	if got := tr.CurrentAverages()[CategoryWork]; got != 35.0 {
		t.Errorf("work average: got %v, want 35.0", got)
	}
}

func TestRecordSample_HistoryCapAndExcerpt(t *testing.T) {
	tr, _ := newTestTracker(t)
	for i := 0; i < maxHistory; i++ {
		tr.stats.History = append(tr.stats.History, Sample{Distribution: Distribution{CategoryOther: 100}})
	}
	tr.stats.TotalSamples = maxHistory

	long := strings.Repeat("喵", 300)
	for i := 0; i < 5; i++ {
		tr.RecordSample(Distribution{CategoryOther: 100}, long)
	}
	snap := tr.Snapshot()
	if len(snap.History) != maxHistory {
		t.Errorf("history: got %d, want %d", len(snap.History), maxHistory)
	}
	if snap.TotalSamples != maxHistory+5 {
		t.Errorf("total: got %d", snap.TotalSamples)
	}
	if n := len([]rune(snap.History[len(snap.History)-1].Excerpt)); n != maxExcerptRune {
		t.Errorf("excerpt runes: got %d, want %d", n, maxExcerptRune)
	}
}

func TestTracker_PersistsAcrossInstances(t *testing.T) {
	tr, path := newTestTracker(t)
	tr.RecordSample(Distribution{CategoryWork: 100}, "写代码")

	reloaded := NewTracker(store.NewSlot[Stats](path, nil), nil)
	if reloaded.TotalSamples() != 1 {
		t.Errorf("total after reload: got %d", reloaded.TotalSamples())
	}
	if reloaded.CurrentAverages()[CategoryWork] != 100 {
		t.Errorf("work after reload: got %v", reloaded.CurrentAverages()[CategoryWork])
	}
}

func TestTracker_CorruptFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.json")
	if err := os.WriteFile(path, []byte("]]garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	tr := NewTracker(store.NewSlot[Stats](path, nil), nil)
	if tr.TotalSamples() != 0 {
		t.Errorf("total: got %d", tr.TotalSamples())
	}
	if len(tr.Snapshot().CategoryTotals) != len(Categories) {
		t.Error("expected all categories backfilled")
	}
}

func TestTracker_BackfillsPartialDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.json")
	doc := `{"total_samples": 2, "category_totals": {"游戏": 200, "bogus": 5}}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	tr := NewTracker(store.NewSlot[Stats](path, nil), nil)
	snap := tr.Snapshot()
	if snap.History == nil {
		t.Error("history should be backfilled")
	}
	if _, ok := snap.CategoryTotals["bogus"]; ok {
		t.Error("unknown category should be dropped on load")
	}
	if tr.CurrentAverages()[CategoryGaming] != 100 {
		t.Errorf("gaming: got %v", tr.CurrentAverages()[CategoryGaming])
	}
}

func TestFormattedReport(t *testing.T) {
	tr, _ := newTestTracker(t)
	if got := tr.FormattedReport(); got != emptyState {
		t.Errorf("empty report: got %q", got)
	}

	tr.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.Local) }
	tr.RecordSample(Distribution{CategoryWork: 75, CategoryGaming: 25}, "")

	report := tr.FormattedReport()
	if !strings.Contains(report, "共分析 1 次") {
		t.Errorf("missing sample count:\n%s", report)
	}
	workLine := CategoryWork + strings.Repeat(" ", 4) + " " + Bar(75) + " 75.0%"
	if !strings.Contains(report, workLine) {
		t.Errorf("missing work line %q in:\n%s", workLine, report)
	}
	if strings.Index(report, CategoryWork) > strings.Index(report, CategoryGaming) {
		t.Error("categories should be sorted by descending percentage")
	}
	if strings.Contains(report, CategoryOther) {
		t.Error("zero categories should be omitted")
	}
	if !strings.Contains(report, "最后更新: 2026-03-01 09:30:00") {
		t.Errorf("missing footer:\n%s", report)
	}
}

func TestBar(t *testing.T) {
	tests := []struct {
		pct    float64
		filled int
	}{
		{0, 0},
		{4.9, 0},
		{5, 1},
		{52.3, 10},
		{100, 20},
	}
	for _, tt := range tests {
		bar := Bar(tt.pct)
		if got := strings.Count(bar, "█"); got != tt.filled {
			t.Errorf("Bar(%v) filled: got %d, want %d", tt.pct, got, tt.filled)
		}
		if got := len([]rune(bar)); got != barWidth {
			t.Errorf("Bar(%v) width: got %d", tt.pct, got)
		}
	}
}

func TestParseModelDistribution(t *testing.T) {
	raw := "好的，这是结果：\n```json\n{\"工作编程\": 70, \"学习研究\": \"30\", \"note\": \"{not a brace}\", \"未知\": 5}\n```\n其他说明 {ignored}"
	d, err := ParseModelDistribution(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d[CategoryWork] != 70 || d[CategoryLearning] != 30 {
		t.Errorf("values: got work=%v learning=%v", d[CategoryWork], d[CategoryLearning])
	}
	if _, ok := d["未知"]; ok {
		t.Error("unknown label should be dropped")
	}
	if len(d) != len(Categories) {
		t.Errorf("expected all %d categories, got %d", len(Categories), len(d))
	}
}

func TestParseModelDistribution_Errors(t *testing.T) {
	if _, err := ParseModelDistribution("no json here"); err != ErrNoJSONObject {
		t.Errorf("expected ErrNoJSONObject, got %v", err)
	}
	if _, err := ParseModelDistribution("{\"工作编程\": 70"); err != ErrNoJSONObject {
		t.Errorf("unbalanced: expected ErrNoJSONObject, got %v", err)
	}
	if _, err := ParseModelDistribution("{工作编程: 70}"); err == nil {
		t.Error("expected decode error for invalid JSON")
	}
	d, err := ParseModelDistribution("{}")
	if err != nil || !d.IsZero() {
		t.Errorf("empty object: got %v, %v", d, err)
	}
}
