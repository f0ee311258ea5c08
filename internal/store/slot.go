// Package store persists small typed records as standalone JSON documents.
//
// Each record lives in its own file and is rewritten in full on every save.
// Loading never fails: a missing or unparsable file yields the zero record so
// callers can backfill defaults and carry on.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Slot is a single JSON document on disk holding a value of type T.
type Slot[T any] struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewSlot returns a slot backed by path. A nil logger falls back to slog.Default().
func NewSlot[T any](path string, logger *slog.Logger) *Slot[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Slot[T]{path: path, logger: logger}
}

// Path returns the backing file path.
func (s *Slot[T]) Path() string { return s.path }

// Load reads the document. ok is false when the file is absent or corrupt;
// in both cases the zero value of T is returned.
func (s *Slot[T]) Load() (v T, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("store: read failed", "path", s.path, "error", err)
		}
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		s.logger.Warn("store: corrupt document, starting fresh", "path", s.path, "error", err)
		var zero T
		return zero, false
	}
	return v, true
}

// Save writes the document. Failures are logged and swallowed; the caller's
// in-memory copy stays authoritative until the next successful save.
func (s *Slot[T]) Save(v T) {
	if err := s.write(v); err != nil {
		s.logger.Error("store: save failed", "path", s.path, "error", err)
	}
}

func (s *Slot[T]) write(v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
