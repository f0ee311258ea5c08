package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/miaomiao/miaomiao/internal/activity"
)

// MaxAvoidMessages is how many remembered comments the anti-repetition
// appendix lists at most.
const MaxAvoidMessages = 5

// Random is the randomness the composer draws on. *rand.Rand satisfies it.
type Random interface {
	Float64() float64
	Intn(n int) int
}

// TokenCounter counts tokens in a string.
type TokenCounter interface {
	Count(s string) int
}

// Composer builds persona and classification instructions.
type Composer struct {
	rnd       Random
	now       func() time.Time
	counter   TokenCounter
	maxTokens int
}

// Option configures a Composer.
type Option func(*Composer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Composer) { c.now = now }
}

// WithTokenBudget drops the oldest anti-repetition entries until the
// instruction fits within max tokens as measured by counter. A nil counter
// or max <= 0 disables the budget.
func WithTokenBudget(counter TokenCounter, max int) Option {
	return func(c *Composer) {
		c.counter = counter
		c.maxTokens = max
	}
}

// NewComposer returns a Composer drawing on rnd.
func NewComposer(rnd Random, opts ...Option) *Composer {
	c := &Composer{rnd: rnd, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ComposeInstruction fills the persona template with moodText, the current
// time band, flavor lines, a suggested reply direction and, when recent is
// non-empty, a list of the last remembered comments to avoid repeating.
func (c *Composer) ComposeInstruction(moodText string, score int, recent []string) string {
	now := c.now()
	special := c.flavor(now, score)

	directions := generalDirections
	if h := now.Hour(); h >= 21 || h <= 5 {
		directions = lateNightDirections
	}
	special += "\n" + directionPrefix + directions[c.rnd.Intn(len(directions))]

	base := fmt.Sprintf(personaTemplate, moodText, TimeContext(now.Hour()), special)

	if len(recent) > MaxAvoidMessages {
		recent = recent[len(recent)-MaxAvoidMessages:]
	}
	out := base + avoidList(recent)
	if c.counter == nil || c.maxTokens <= 0 {
		return out
	}
	for len(recent) > 0 && c.counter.Count(out) > c.maxTokens {
		recent = recent[1:]
		out = base + avoidList(recent)
	}
	return out
}

// flavor draws the random and calendar-driven status lines. The draws
// happen in a fixed order so a seeded source gives repeatable output.
func (c *Composer) flavor(now time.Time, score int) string {
	var lines []string
	if c.rnd.Float64() < 0.10 {
		lines = append(lines, flavorJealous)
	}
	if c.rnd.Float64() < 0.15 {
		lines = append(lines, flavorPlayful)
	}
	if h := now.Hour(); h >= 1 && h <= 5 {
		lines = append(lines, flavorWorried)
	}
	switch now.Weekday() {
	case time.Friday:
		lines = append(lines, flavorFriday)
	case time.Monday:
		lines = append(lines, flavorMonday)
	}
	if score >= 10 && c.rnd.Float64() < 0.20 {
		lines = append(lines, flavorSecret)
	}
	if len(lines) == 0 {
		return flavorNone
	}
	return strings.Join(lines, "\n")
}

func avoidList(recent []string) string {
	if len(recent) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(avoidHeader)
	for i, m := range recent {
		fmt.Fprintf(&b, "%d. %s\n", i+1, m)
	}
	return b.String()
}

// TimeContext returns the framing line for hour (0-23).
func TimeContext(hour int) string {
	switch {
	case hour >= 5 && hour < 9:
		return timeDawn
	case hour >= 9 && hour < 12:
		return timeMorning
	case hour >= 12 && hour < 14:
		return timeMidday
	case hour >= 14 && hour < 18:
		return timeAfternoon
	case hour >= 18 && hour < 21:
		return timeEvening
	case hour >= 21 && hour < 24:
		return timeLateNight
	default:
		return timePreDawn
	}
}

// ClassificationInstruction asks the model for a JSON object over the fixed
// activity categories.
func ClassificationInstruction() string {
	keys := make([]string, len(activity.Categories))
	for i, c := range activity.Categories {
		keys[i] = fmt.Sprintf("%q", c)
	}
	return fmt.Sprintf(classificationTemplate, len(keys), strings.Join(keys, ", "))
}
