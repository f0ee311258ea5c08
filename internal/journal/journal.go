// Package journal records every analysis cycle in SQLite so past comments
// can be browsed and exported.
package journal

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/miaomiao/miaomiao/internal/db"
)

// Classification sources.
const (
	SourceModel   = "model"
	SourceKeyword = "keyword"
	SourceNone    = "none"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000Z"

// Entry is one journaled cycle.
type Entry struct {
	ID           string             `json:"id"`
	StartedAt    time.Time          `json:"started_at"`
	Duration     time.Duration      `json:"duration_ns"`
	Outcome      string             `json:"outcome"`
	DisplayText  string             `json:"display_text"`
	Comment      string             `json:"comment,omitempty"`
	Delta        int                `json:"delta"`
	Reason       string             `json:"reason,omitempty"`
	Score        int                `json:"score"`
	TierChanged  bool               `json:"tier_changed"`
	Source       string             `json:"classification_source"`
	Distribution map[string]float64 `json:"distribution,omitempty"`
	Error        string             `json:"error,omitempty"`
}

// Store provides CRUD operations over the cycles table.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Record inserts e and returns its generated ID.
func (s *Store) Record(e Entry) (string, error) {
	if e.Source == "" {
		e.Source = SourceNone
	}
	dist := []byte("{}")
	if len(e.Distribution) > 0 {
		b, err := json.Marshal(e.Distribution)
		if err != nil {
			return "", fmt.Errorf("journal: marshal distribution: %w", err)
		}
		dist = b
	}

	var id string
	err := s.db.Conn().QueryRow(`
		INSERT INTO cycles (started_at, duration_ms, outcome, display_text, comment,
		                    delta, reason, score, tier_changed, classification_source,
		                    distribution, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		e.StartedAt.UTC().Format(timeLayout), e.Duration.Milliseconds(), e.Outcome,
		e.DisplayText, e.Comment, e.Delta, e.Reason, e.Score, boolToInt(e.TierChanged),
		e.Source, string(dist), e.Error,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("journal: insert: %w", err)
	}
	return id, nil
}

// Recent returns the newest limit entries, newest first. limit <= 0 returns all.
func (s *Store) Recent(limit int) ([]Entry, error) {
	q := `SELECT id, started_at, duration_ms, outcome, display_text, comment, delta,
	             reason, score, tier_changed, classification_source, distribution, error
	      FROM cycles ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.query(q, args...)
}

// Since returns the entries started at or after t, oldest first.
func (s *Store) Since(t time.Time) ([]Entry, error) {
	return s.query(
		`SELECT id, started_at, duration_ms, outcome, display_text, comment, delta,
		        reason, score, tier_changed, classification_source, distribution, error
		 FROM cycles WHERE started_at >= ? ORDER BY started_at ASC, rowid ASC`,
		t.UTC().Format(timeLayout),
	)
}

// Count returns the number of journaled cycles.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.Conn().QueryRow(`SELECT COUNT(*) FROM cycles`).Scan(&n)
	return n, err
}

// CountByOutcome returns the number of cycles per outcome.
func (s *Store) CountByOutcome() (map[string]int, error) {
	rows, err := s.db.Conn().Query(`SELECT outcome, COUNT(*) FROM cycles GROUP BY outcome`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		out[outcome] = n
	}
	return out, rows.Err()
}

// Prune deletes all but the newest keep entries and returns how many were removed.
func (s *Store) Prune(keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.Conn().Exec(`
		DELETE FROM cycles WHERE id NOT IN (
			SELECT id FROM cycles ORDER BY started_at DESC, rowid DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) query(q string, args ...any) ([]Entry, error) {
	rows, err := s.db.Conn().Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e           Entry
			startedAt   string
			durationMS  int64
			tierChanged int
			dist        string
		)
		if err := rows.Scan(&e.ID, &startedAt, &durationMS, &e.Outcome, &e.DisplayText,
			&e.Comment, &e.Delta, &e.Reason, &e.Score, &tierChanged, &e.Source,
			&dist, &e.Error); err != nil {
			return nil, err
		}
		e.StartedAt = parseTime(startedAt)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.TierChanged = tierChanged != 0
		if dist != "" && dist != "{}" {
			_ = json.Unmarshal([]byte(dist), &e.Distribution)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// parseTime parses SQLite timestamp strings in the layouts the journal writes
// or SQLite defaults produce.
func parseTime(s string) time.Time {
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
