package export

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/miaomiao/miaomiao/internal/activity"
	"github.com/miaomiao/miaomiao/internal/favor"
	"github.com/miaomiao/miaomiao/internal/history"
	"github.com/miaomiao/miaomiao/internal/journal"
)

func sampleExportData() ExportData {
	at := time.Date(2026, 5, 6, 15, 0, 0, 0, time.UTC)
	return ExportData{
		GeneratedAt: at,
		Favorability: favor.State{
			Score:           6,
			Mood:            "亲密伙伴",
			LastInteraction: at,
			History: []favor.Interaction{
				{Timestamp: at, Delta: 5, Reason: "为喵喵买东西", NewScore: 6},
			},
			Unlocks: []string{favor.IntimateMode},
		},
		Display: favor.Display{Label: "亲密伙伴", Hearts: 3, Color: "#ff69b4", Score: 6},
		Activity: activity.Stats{
			TotalSamples: 2,
			LastUpdated:  at,
		},
		Ranking: []activity.Ranked{
			{Category: activity.CategoryWork, Percent: 60},
			{Category: activity.CategoryGaming, Percent: 40},
			{Category: activity.CategoryOther, Percent: 0},
		},
		Messages: []history.Entry{
			{Text: "喵~ 主人在写代码呀", Timestamp: at},
		},
		Cycles: []journal.Entry{
			{StartedAt: at, Outcome: "ok", DisplayText: "喵~ 主人在写代码呀\n喵 | 喵", Delta: 2},
		},
	}
}

func TestGet_ValidFormats(t *testing.T) {
	for _, name := range []string{"markdown", "json"} {
		exp, ok := Get(name)
		if !ok || exp == nil {
			t.Errorf("Get(%q) returned %v, %v", name, exp, ok)
		}
	}
}

func TestGet_InvalidFormat(t *testing.T) {
	if _, ok := Get("claude"); ok {
		t.Error("expected Get('claude') to return false")
	}
}

func TestValidFormats(t *testing.T) {
	got := ValidFormats()
	if strings.Join(got, ",") != "json,markdown" {
		t.Errorf("got %v", got)
	}
}

func TestJSONExporter(t *testing.T) {
	out, err := (&JSONExporter{}).Export(sampleExportData())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	var parsed struct {
		Favorability struct {
			Label   string   `json:"label"`
			Hearts  int      `json:"hearts"`
			Score   int      `json:"score"`
			Unlocks []string `json:"special_unlocks"`
		} `json:"favorability"`
		Activity struct {
			TotalSamples int                `json:"total_samples"`
			Averages     map[string]float64 `json:"averages"`
		} `json:"activity"`
		Messages []json.RawMessage `json:"messages"`
		Cycles   []json.RawMessage `json:"cycles"`
	}
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if parsed.Favorability.Label != "亲密伙伴" || parsed.Favorability.Hearts != 3 || parsed.Favorability.Score != 6 {
		t.Errorf("favorability: %+v", parsed.Favorability)
	}
	if len(parsed.Favorability.Unlocks) != 1 {
		t.Errorf("unlocks: %v", parsed.Favorability.Unlocks)
	}
	if parsed.Activity.TotalSamples != 2 || parsed.Activity.Averages[activity.CategoryWork] != 60 {
		t.Errorf("activity: %+v", parsed.Activity)
	}
	if len(parsed.Messages) != 1 || len(parsed.Cycles) != 1 {
		t.Errorf("messages %d, cycles %d", len(parsed.Messages), len(parsed.Cycles))
	}
}

func TestJSONExporter_EmptyListsAreArrays(t *testing.T) {
	out, err := (&JSONExporter{}).Export(ExportData{})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if strings.Contains(out, "null") {
		t.Errorf("empty export should not contain null:\n%s", out)
	}
}

func TestMarkdownExporter(t *testing.T) {
	out, err := (&MarkdownExporter{}).Export(sampleExportData())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	for _, want := range []string{
		"# 喵喵酱的小本本",
		"| Tier | 亲密伙伴 |",
		"| Hearts | ❤❤❤♡♡ |",
		"| Unlocked | intimate_mode |",
		"| 工作编程 | 60.0% |",
		"## Recent Comments",
		"## Cycle Journal",
		`喵~ 主人在写代码呀 喵 \| 喵`,
		"| +2 |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, activity.CategoryOther) {
		t.Error("zero categories should be omitted")
	}
}

func TestMarkdownExporter_Empty(t *testing.T) {
	out, err := (&MarkdownExporter{}).Export(ExportData{})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.Contains(out, "No samples yet.") {
		t.Errorf("expected empty activity note:\n%s", out)
	}
	if strings.Contains(out, "## Cycle Journal") {
		t.Error("empty journal section should be omitted")
	}
}
