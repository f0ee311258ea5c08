package capture

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const archivePattern = "cat_screenshot_*.png"

// Archive keeps copies of the most recent screenshots.
type Archive struct {
	Dir  string
	Keep int

	logger *slog.Logger
	now    func() time.Time
}

// NewArchive returns an archive under dir keeping at most keep files. keep
// <= 0 disables pruning.
func NewArchive(dir string, keep int, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archive{Dir: dir, Keep: keep, logger: logger, now: time.Now}
}

// Save copies src into the archive as cat_screenshot_<timestamp>.png and
// prunes old copies. It returns the archived path.
func (a *Archive) Save(src string) (string, error) {
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return "", fmt.Errorf("archive: mkdir: %w", err)
	}

	name := fmt.Sprintf("cat_screenshot_%s.png", a.now().Format("20060102_150405"))
	dst := filepath.Join(a.Dir, name)
	if err := copyFile(src, dst); err != nil {
		return "", fmt.Errorf("archive: copy: %w", err)
	}

	a.Prune()
	return dst, nil
}

// Prune deletes the oldest archived screenshots beyond Keep.
func (a *Archive) Prune() {
	if a.Keep <= 0 {
		return
	}
	matches, err := filepath.Glob(filepath.Join(a.Dir, archivePattern))
	if err != nil || len(matches) <= a.Keep {
		return
	}

	type entry struct {
		path string
		mod  time.Time
	}
	entries := make([]entry, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		entries = append(entries, entry{m, info.ModTime()})
	}
	if len(entries) <= a.Keep {
		return
	}
	// Oldest first; names embed the timestamp so they break mtime ties.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].mod.Equal(entries[j].mod) {
			return entries[i].path < entries[j].path
		}
		return entries[i].mod.Before(entries[j].mod)
	})

	for _, e := range entries[:len(entries)-a.Keep] {
		if err := os.Remove(e.path); err != nil {
			a.logger.Warn("archive: remove old screenshot", "path", e.path, "err", err)
		}
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
