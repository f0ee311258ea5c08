// Package capture takes screenshots with the platform's screenshot tool and
// prepares them for upload: downscaling, base64 encoding and a rolling
// on-disk archive.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// ErrCaptureFailed wraps every screenshot failure: tool missing, non-zero
// exit, timeout, or no file produced.
var ErrCaptureFailed = errors.New("capture: screenshot failed")

// PathPlaceholder in a command argv is replaced by the output file path.
const PathPlaceholder = "{path}"

// DefaultTimeout bounds a single screenshot command.
const DefaultTimeout = 10 * time.Second

// Capturer takes a screenshot and returns the path of a temporary image the
// caller must remove.
type Capturer interface {
	Capture(ctx context.Context) (string, error)
}

// DefaultCommands returns the candidate screenshot commands for goos, in
// order of preference.
func DefaultCommands(goos string) [][]string {
	switch goos {
	case "darwin":
		return [][]string{{"screencapture", "-x", PathPlaceholder}}
	case "linux", "freebsd", "openbsd":
		return [][]string{
			{"gnome-screenshot", "-f", PathPlaceholder},
			{"grim", PathPlaceholder},
			{"import", "-window", "root", PathPlaceholder},
		}
	}
	return nil
}

// CommandCapturer runs an external screenshot tool.
type CommandCapturer struct {
	// Argv is the command to run. Empty means the first available
	// DefaultCommands entry for this OS.
	Argv    []string
	Timeout time.Duration
	// TempDir holds the temporary screenshot. Empty means os.TempDir().
	TempDir string
	// Archive, when set, receives a copy of every successful capture.
	Archive *Archive
	Logger  *slog.Logger

	lookPath func(string) (string, error)
}

// NewCommandCapturer returns a capturer with the given argv (may be empty).
func NewCommandCapturer(argv []string, timeout time.Duration, archive *Archive, logger *slog.Logger) *CommandCapturer {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &CommandCapturer{Argv: argv, Timeout: timeout, Archive: archive, Logger: logger}
}

func (c *CommandCapturer) resolveArgv() ([]string, error) {
	if len(c.Argv) > 0 {
		return c.Argv, nil
	}
	look := c.lookPath
	if look == nil {
		look = exec.LookPath
	}
	for _, cand := range DefaultCommands(runtime.GOOS) {
		if _, err := look(cand[0]); err == nil {
			return cand, nil
		}
	}
	return nil, fmt.Errorf("%w: no screenshot tool found for %s", ErrCaptureFailed, runtime.GOOS)
}

// Capture runs the screenshot command and returns the temporary image path.
func (c *CommandCapturer) Capture(ctx context.Context) (string, error) {
	argv, err := c.resolveArgv()
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(c.TempDir, "miaomiao-*.png")
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %v", ErrCaptureFailed, err)
	}
	path := f.Name()
	_ = f.Close()
	// Some tools refuse to overwrite an existing file.
	_ = os.Remove(path)

	args := make([]string, len(argv))
	substituted := false
	for i, a := range argv {
		if strings.Contains(a, PathPlaceholder) {
			substituted = true
		}
		args[i] = strings.ReplaceAll(a, PathPlaceholder, path)
	}
	if !substituted {
		args = append(args, path)
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.WaitDelay = time.Second
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	c.Logger.Debug("capture: running", "cmd", strings.Join(args, " "))
	runErr := cmd.Run()
	if runErr != nil {
		_ = os.Remove(path)
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return "", fmt.Errorf("%w: timed out after %s", ErrCaptureFailed, c.Timeout)
		case errors.Is(runErr, exec.ErrNotFound):
			return "", fmt.Errorf("%w: %s not found: %v", ErrCaptureFailed, args[0], runErr)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %v: %s", ErrCaptureFailed, runErr, msg)
		}
		return "", fmt.Errorf("%w: %v", ErrCaptureFailed, runErr)
	}

	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(path)
		return "", fmt.Errorf("%w: command produced no image", ErrCaptureFailed)
	}

	if c.Archive != nil {
		if _, err := c.Archive.Save(path); err != nil {
			c.Logger.Warn("capture: archive copy failed", "err", err)
		}
	}
	return path, nil
}
