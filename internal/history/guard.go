// Package history remembers the cat's recent comments so new ones that
// merely rephrase an old one can be suppressed.
package history

import (
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/miaomiao/miaomiao/internal/store"
)

const (
	// Capacity is the number of comments kept.
	Capacity = 20
	// DefaultThreshold is the Jaccard similarity at or above which a
	// candidate counts as a near-duplicate.
	DefaultThreshold = 0.6

	logVersion = 1
)

// Entry is one remembered comment.
type Entry struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Log is the persisted comment history.
type Log struct {
	Version int     `json:"version"`
	Entries []Entry `json:"messages"`
}

// Guard is a bounded FIFO of comments with near-duplicate detection.
type Guard struct {
	mu   sync.Mutex
	slot *store.Slot[Log]
	log  Log
	now  func() time.Time
}

// NewGuard loads the history from slot. now may be nil.
func NewGuard(slot *store.Slot[Log], now func() time.Time) *Guard {
	if now == nil {
		now = time.Now
	}
	l, _ := slot.Load()
	if l.Entries == nil {
		l.Entries = []Entry{}
	}
	if over := len(l.Entries) - Capacity; over > 0 {
		l.Entries = l.Entries[over:]
	}
	l.Version = logVersion
	return &Guard{slot: slot, log: l, now: now}
}

// Remember appends text, evicting the oldest entry beyond Capacity, and
// persists.
func (g *Guard) Remember(text string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.log.Entries = append(g.log.Entries, Entry{Text: text, Timestamp: g.now()})
	if over := len(g.log.Entries) - Capacity; over > 0 {
		g.log.Entries = append([]Entry(nil), g.log.Entries[over:]...)
	}
	g.slot.Save(g.log)
}

// IsNearDuplicate reports whether candidate is at least threshold-similar
// to any remembered comment. A threshold <= 0 uses DefaultThreshold.
func (g *Guard) IsNearDuplicate(candidate string, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	cleaned := clean(candidate)
	cand := tokenSet(cleaned)

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, e := range g.log.Entries {
		prev := clean(e.Text)
		if cleaned != "" && cleaned == prev {
			return true
		}
		if Similarity(cand, tokenSet(prev)) >= threshold {
			return true
		}
	}
	return false
}

// Recent returns up to n most recent comment texts, oldest first.
func (g *Guard) Recent(n int) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	entries := g.log.Entries
	if n >= 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Text
	}
	return out
}

// Entries returns a copy of the remembered entries, oldest first.
func (g *Guard) Entries() []Entry {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Entry(nil), g.log.Entries...)
}

// clean keeps letters, digits and whitespace.
func clean(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// tokenSet splits cleaned text into lowercase tokens. Runs of non-CJK
// letters and digits form words; every Han, kana or hangul rune is a token
// of its own since those scripts do not separate words with spaces.
func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	var word strings.Builder
	flush := func() {
		if word.Len() > 0 {
			set[strings.ToLower(word.String())] = struct{}{}
			word.Reset()
		}
	}
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			flush()
		case isCJK(r):
			flush()
			set[string(r)] = struct{}{}
		default:
			word.WriteRune(r)
		}
	}
	flush()
	return set
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul)
}

// Similarity is the Jaccard index of two token sets. Two empty sets are not
// similar.
func Similarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
