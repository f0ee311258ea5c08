package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultGlobal(t *testing.T) {
	cfg := DefaultGlobal()

	if cfg.Provider != "dashscope" {
		t.Errorf("provider: got %q, want %q", cfg.Provider, "dashscope")
	}
	if cfg.Model != "" {
		t.Errorf("model: got %q, want empty (provider default)", cfg.Model)
	}
	if cfg.Analysis.TimeoutSeconds != 60 {
		t.Errorf("timeout: got %d, want 60", cfg.Analysis.TimeoutSeconds)
	}
	if cfg.Analysis.DuplicateThreshold != 0.6 {
		t.Errorf("duplicate threshold: got %f, want 0.6", cfg.Analysis.DuplicateThreshold)
	}
	if !cfg.Analysis.ModelClassification {
		t.Error("model classification should default to enabled")
	}
	if cfg.Capture.TimeoutSeconds != 10 {
		t.Errorf("capture timeout: got %d, want 10", cfg.Capture.TimeoutSeconds)
	}
	if cfg.Ollama.Host != "http://localhost:11434" {
		t.Errorf("ollama host: got %q", cfg.Ollama.Host)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("log format: got %q", cfg.Log.Format)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFile_NoFile(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider != "dashscope" {
		t.Errorf("expected defaults, got provider %q", cfg.Provider)
	}
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := DefaultGlobal()
	cfg.Provider = "ollama"
	cfg.Model = "llava"
	cfg.Capture.Command = []string{"grim", "{path}"}
	cfg.Analysis.IntervalSeconds = 0

	if err := SaveFile(path, cfg); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if loaded.Provider != "ollama" || loaded.Model != "llava" {
		t.Errorf("provider/model: got %q/%q", loaded.Provider, loaded.Model)
	}
	if len(loaded.Capture.Command) != 2 || loaded.Capture.Command[0] != "grim" {
		t.Errorf("command: got %v", loaded.Capture.Command)
	}
	if loaded.Analysis.IntervalSeconds != 0 {
		t.Errorf("interval: got %d, want 0", loaded.Analysis.IntervalSeconds)
	}
}

func TestLoadFile_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[analysis]\ninterval_seconds = 30\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Analysis.IntervalSeconds != 30 {
		t.Errorf("interval: got %d, want 30", cfg.Analysis.IntervalSeconds)
	}
	if cfg.Analysis.TimeoutSeconds != 60 {
		t.Errorf("unset field lost its default: %d", cfg.Analysis.TimeoutSeconds)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("provider = [oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("expected decode error")
	}
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	t.Setenv("DASHSCOPE_API_KEY", "sk-test-123")
	t.Setenv("MIAOMIAO_STATE_DIR", "/tmp/miaomiao-state")
	t.Setenv("MIAOMIAO_PROVIDER", "claude")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Keys.DashScope != "sk-test-123" {
		t.Errorf("expected env override, got %q", cfg.Keys.DashScope)
	}
	if cfg.StateDir != "/tmp/miaomiao-state" {
		t.Errorf("state dir: got %q", cfg.StateDir)
	}
	if cfg.Provider != "claude" {
		t.Errorf("provider: got %q", cfg.Provider)
	}
}

func TestGlobalConfigPath(t *testing.T) {
	path, err := GlobalConfigPath()
	if err != nil {
		t.Fatalf("GlobalConfigPath: %v", err)
	}
	if os.Getenv("MIAOMIAO_CONFIG") == "" && !filepath.IsAbs(path) {
		t.Errorf("expected absolute path, got %q", path)
	}

	t.Setenv("MIAOMIAO_CONFIG", "/etc/miaomiao.toml")
	if path, _ := GlobalConfigPath(); path != "/etc/miaomiao.toml" {
		t.Errorf("override: got %q", path)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GlobalConfig)
		want   string
	}{
		{"provider", func(c *GlobalConfig) { c.Provider = "bard" }, "unknown provider"},
		{"interval", func(c *GlobalConfig) { c.Analysis.IntervalSeconds = -1 }, "interval_seconds"},
		{"timeout", func(c *GlobalConfig) { c.Analysis.TimeoutSeconds = 0 }, "timeout_seconds"},
		{"temperature", func(c *GlobalConfig) { c.Analysis.Temperature = 3 }, "temperature"},
		{"threshold", func(c *GlobalConfig) { c.Analysis.DuplicateThreshold = 0 }, "duplicate_threshold"},
		{"max saved", func(c *GlobalConfig) { c.Capture.MaxSaved = -2 }, "max_saved"},
		{"log level", func(c *GlobalConfig) { c.Log.Level = "loud" }, "log.level"},
		{"log format", func(c *GlobalConfig) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultGlobal()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want error mentioning %q", err, tt.want)
			}
		})
	}
}

func TestAPIKey(t *testing.T) {
	cfg := DefaultGlobal()
	cfg.Keys = KeysConfig{DashScope: "d", OpenAI: "o", Anthropic: "a", Gemini: "g"}
	want := map[string]string{"dashscope": "d", "openai": "o", "claude": "a", "gemini": "g", "ollama": ""}
	for provider, key := range want {
		cfg.Provider = provider
		if got := cfg.APIKey(); got != key {
			t.Errorf("%s: got %q, want %q", provider, got, key)
		}
	}
}

func TestStatePaths(t *testing.T) {
	cfg := DefaultGlobal()
	cfg.StateDir = "/data/cat"

	p, err := cfg.StatePaths()
	if err != nil {
		t.Fatalf("StatePaths: %v", err)
	}
	if p.Favorability != filepath.Join("/data/cat", "favorability.json") {
		t.Errorf("favorability: got %q", p.Favorability)
	}
	if p.Journal != filepath.Join("/data/cat", "journal.db") {
		t.Errorf("journal: got %q", p.Journal)
	}
	if p.Archive != filepath.Join("/data/cat", "screenshots") {
		t.Errorf("archive: got %q", p.Archive)
	}

	cfg.Capture.ArchiveDir = "/pics"
	p, _ = cfg.StatePaths()
	if p.Archive != "/pics" {
		t.Errorf("archive override: got %q", p.Archive)
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())

	os.WriteFile(".env.local", []byte("MIAOMIAO_TEST_A=local\n"), 0o644)
	os.WriteFile(".env", []byte("MIAOMIAO_TEST_A=base\nMIAOMIAO_TEST_B=base\nMIAOMIAO_TEST_C=file\n"), 0o644)
	t.Setenv("MIAOMIAO_TEST_C", "env")
	t.Setenv("MIAOMIAO_TEST_A", "")
	os.Unsetenv("MIAOMIAO_TEST_A")
	t.Setenv("MIAOMIAO_TEST_B", "")
	os.Unsetenv("MIAOMIAO_TEST_B")

	LoadDotEnv(nil)

	if got := os.Getenv("MIAOMIAO_TEST_A"); got != "local" {
		t.Errorf(".env.local should win: got %q", got)
	}
	if got := os.Getenv("MIAOMIAO_TEST_B"); got != "base" {
		t.Errorf(".env value: got %q", got)
	}
	if got := os.Getenv("MIAOMIAO_TEST_C"); got != "env" {
		t.Errorf("existing env should win: got %q", got)
	}
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := SaveFile(path, DefaultGlobal()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan GlobalConfig, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, nil, func(c GlobalConfig) { changes <- c })
	}()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)
	cfg := DefaultGlobal()
	cfg.Analysis.IntervalSeconds = 42
	if err := SaveFile(path, cfg); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-changes:
		if c.Analysis.IntervalSeconds != 42 {
			t.Errorf("reloaded interval: got %d, want 42", c.Analysis.IntervalSeconds)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload observed")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch: %v", err)
	}
}
