package favor

import (
	"strings"
	"sync"
	"time"

	"github.com/miaomiao/miaomiao/internal/store"
)

// Interaction is one recorded score change.
type Interaction struct {
	Timestamp time.Time `json:"timestamp"`
	Delta     int       `json:"change"`
	Reason    string    `json:"reason"`
	NewScore  int       `json:"new_level"`
}

// State is the persisted favorability record.
type State struct {
	Version         int           `json:"version"`
	Score           int           `json:"favorability"`
	Mood            string        `json:"mood"`
	LastInteraction time.Time     `json:"last_interaction"`
	History         []Interaction `json:"interaction_history"`
	Unlocks         []string      `json:"special_unlocks"`
}

func (s *State) normalize(now time.Time) {
	s.Score = clamp(s.Score)
	if s.LastInteraction.IsZero() {
		s.LastInteraction = now
	}
	if s.History == nil {
		s.History = []Interaction{}
	}
	if s.Unlocks == nil {
		s.Unlocks = []string{}
	}
	s.Mood = TierFor(s.Score).Label
	s.Version = stateVersion
}

func (s State) unlocked(feature string) bool {
	for _, u := range s.Unlocks {
		if u == feature {
			return true
		}
	}
	return false
}

// Engine owns the favorability record. All mutation goes through ApplyDelta.
type Engine struct {
	mu    sync.Mutex
	slot  *store.Slot[State]
	state State
	now   func() time.Time
}

// NewEngine loads the record from slot, creating it at score 0 when absent
// or unreadable. now may be nil.
func NewEngine(slot *store.Slot[State], now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	state, ok := slot.Load()
	state.normalize(now())
	e := &Engine{slot: slot, state: state, now: now}
	if !ok {
		slot.Save(state)
	}
	return e
}

// ApplyDelta adds delta to the score (clamped), records the change and
// persists. tierChanged reports a tier crossing, not merely a score change.
func (e *Engine) ApplyDelta(delta int, reason string) (newScore int, tierChanged bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	old := e.state.Score
	newScore = clamp(old + delta)

	e.state.Score = newScore
	e.state.Mood = TierFor(newScore).Label
	e.state.History = append(e.state.History, Interaction{
		Timestamp: now,
		Delta:     delta,
		Reason:    reason,
		NewScore:  newScore,
	})
	if over := len(e.state.History) - maxInteractions; over > 0 {
		e.state.History = append([]Interaction(nil), e.state.History[over:]...)
	}
	if newScore >= 5 && !e.state.unlocked(IntimateMode) {
		e.state.Unlocks = append(e.state.Unlocks, IntimateMode)
	}
	e.state.LastInteraction = now
	e.slot.Save(e.state)

	return newScore, TierIndex(old) != TierIndex(newScore)
}

// ScoreFromContext derives a delta from a comment and the time since the
// last interaction. It does not mutate state.
func (e *Engine) ScoreFromContext(text string) (delta int, reason string) {
	delta, reason = matchTrigger(text)

	e.mu.Lock()
	since := e.now().Sub(e.state.LastInteraction)
	e.mu.Unlock()

	adj, note := recencyAdjust(since)
	return delta + adj, strings.TrimSpace(reason + note)
}

// Score returns the current score.
func (e *Engine) Score() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Score
}

// MoodModifier returns the prompt block for the current score.
func (e *Engine) MoodModifier() string { return MoodModifier(e.Score()) }

// SpecialResponses returns the canned lines for the current score.
func (e *Engine) SpecialResponses() []string { return SpecialResponses(e.Score()) }

// Display returns the tier label, heart count and color for the current score.
func (e *Engine) Display() Display { return TierDisplay(e.Score()) }

// Snapshot returns a copy of the persisted record.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.state
	s.History = append([]Interaction(nil), e.state.History...)
	s.Unlocks = append([]string(nil), e.state.Unlocks...)
	return s
}
