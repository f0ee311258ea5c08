package activity

import (
	"math"
	"sync"
	"time"

	"github.com/miaomiao/miaomiao/internal/store"
)

const (
	statsVersion   = 1
	maxHistory     = 1000
	maxExcerptRune = 200
)

// Sample is one recorded analysis.
type Sample struct {
	Timestamp    time.Time    `json:"timestamp"`
	Distribution Distribution `json:"distribution"`
	Excerpt      string       `json:"source_text_excerpt"`
}

// Stats is the persisted activity record.
type Stats struct {
	Version        int                `json:"version"`
	TotalSamples   int                `json:"total_samples"`
	CategoryTotals map[string]float64 `json:"category_totals"`
	History        []Sample           `json:"history"`
	LastUpdated    time.Time          `json:"last_updated"`
}

// normalize backfills fields absent from older or hand-edited documents.
func (s *Stats) normalize() {
	if s.TotalSamples < 0 {
		s.TotalSamples = 0
	}
	if s.CategoryTotals == nil {
		s.CategoryTotals = make(map[string]float64, len(Categories))
	}
	for _, c := range Categories {
		if v, ok := s.CategoryTotals[c]; !ok || v < 0 {
			s.CategoryTotals[c] = 0
		}
	}
	for k := range s.CategoryTotals {
		if !ValidCategory(k) {
			delete(s.CategoryTotals, k)
		}
	}
	if s.History == nil {
		s.History = []Sample{}
	}
	s.Version = statsVersion
}

// Tracker accumulates activity samples and persists them after every change.
type Tracker struct {
	mu    sync.Mutex
	slot  *store.Slot[Stats]
	stats Stats
	now   func() time.Time
}

// NewTracker loads the record from slot (or starts empty). now may be nil.
func NewTracker(slot *store.Slot[Stats], now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	stats, ok := slot.Load()
	stats.normalize()
	t := &Tracker{slot: slot, stats: stats, now: now}
	if !ok {
		slot.Save(stats)
	}
	return t
}

// RecordSample adds one distribution to the running totals. Labels outside
// the fixed set are ignored; a non-zero distribution is rescaled to sum to
// 100 first.
func (t *Tracker) RecordSample(d Distribution, excerpt string) {
	clean := emptyDistribution()
	for label, v := range d {
		if ValidCategory(label) && v > 0 {
			clean[label] = v
		}
	}

	if total := clean.Sum(); total > 0 && math.Abs(total-100) > 0.01 {
		for c, v := range clean {
			clean[c] = v / total * 100
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.stats.TotalSamples++
	for c, v := range clean {
		t.stats.CategoryTotals[c] += v
	}
	t.stats.History = append(t.stats.History, Sample{
		Timestamp:    now,
		Distribution: clean,
		Excerpt:      truncateRunes(excerpt, maxExcerptRune),
	})
	if over := len(t.stats.History) - maxHistory; over > 0 {
		t.stats.History = append([]Sample(nil), t.stats.History[over:]...)
	}
	t.stats.LastUpdated = now
	t.slot.Save(t.stats)
}

// CurrentAverages returns the mean percentage per category, rounded to one
// decimal place. Every category is present; all zero before any sample.
func (t *Tracker) CurrentAverages() map[string]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.averagesLocked()
}

func (t *Tracker) averagesLocked() map[string]float64 {
	out := make(map[string]float64, len(Categories))
	for _, c := range Categories {
		if t.stats.TotalSamples == 0 {
			out[c] = 0
			continue
		}
		out[c] = math.Round(t.stats.CategoryTotals[c]/float64(t.stats.TotalSamples)*10) / 10
	}
	return out
}

// TotalSamples returns the number of recorded samples.
func (t *Tracker) TotalSamples() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats.TotalSamples
}

// Recent returns up to n most recent samples, oldest first.
func (t *Tracker) Recent(n int) []Sample {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := t.stats.History
	if n > 0 && len(h) > n {
		h = h[len(h)-n:]
	}
	out := make([]Sample, len(h))
	copy(out, h)
	return out
}

// Snapshot returns a deep copy of the current record.
func (t *Tracker) Snapshot() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.stats
	s.CategoryTotals = make(map[string]float64, len(t.stats.CategoryTotals))
	for k, v := range t.stats.CategoryTotals {
		s.CategoryTotals[k] = v
	}
	s.History = append([]Sample(nil), t.stats.History...)
	return s
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
