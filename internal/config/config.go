// Package config manages the user configuration
// (~/.config/miaomiao/config.toml) and the locations of the state files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// GlobalConfig holds user-wide settings.
type GlobalConfig struct {
	Provider string         `toml:"provider"`
	Model    string         `toml:"model"` // empty selects the provider default
	BaseURL  string         `toml:"base_url"`
	JSONMode bool           `toml:"json_mode"`
	StateDir string         `toml:"state_dir"`
	Keys     KeysConfig     `toml:"keys"`
	Ollama   OllamaConfig   `toml:"ollama"`
	Analysis AnalysisConfig `toml:"analysis"`
	Capture  CaptureConfig  `toml:"capture"`
	Prompt   PromptConfig   `toml:"prompt"`
	Pet      PetConfig      `toml:"pet"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

type KeysConfig struct {
	DashScope string `toml:"dashscope"`
	OpenAI    string `toml:"openai"`
	Anthropic string `toml:"anthropic"`
	Gemini    string `toml:"gemini"`
}

type OllamaConfig struct {
	Host string `toml:"host"`
}

// AnalysisConfig controls the analysis cycle.
type AnalysisConfig struct {
	// IntervalSeconds between automatic analyses; 0 disables the timer.
	IntervalSeconds     int     `toml:"interval_seconds"`
	TimeoutSeconds      int     `toml:"timeout_seconds"`
	MaxTokens           int     `toml:"max_tokens"`
	Temperature         float64 `toml:"temperature"`
	DuplicateThreshold  float64 `toml:"duplicate_threshold"`
	ModelClassification bool    `toml:"model_classification"`
}

// CaptureConfig controls the screenshot command and archive.
type CaptureConfig struct {
	// Command overrides the platform default. "{path}" is replaced by the
	// output file.
	Command        []string `toml:"command"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	ArchiveDir     string   `toml:"archive_dir"`
	// MaxSaved archived screenshots; 0 disables the archive.
	MaxSaved int `toml:"max_saved"`
}

type PromptConfig struct {
	// MaxTokens caps the persona instruction; 0 disables the budget.
	MaxTokens int `toml:"max_tokens"`
}

type PetConfig struct {
	BubbleSeconds int `toml:"bubble_seconds"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Providers lists the accepted values of GlobalConfig.Provider.
var Providers = []string{"dashscope", "openai", "claude", "gemini", "ollama"}

// DefaultGlobal returns sensible defaults.
func DefaultGlobal() GlobalConfig {
	return GlobalConfig{
		Provider: "dashscope",
		Ollama: OllamaConfig{
			Host: "http://localhost:11434",
		},
		Analysis: AnalysisConfig{
			IntervalSeconds:     300,
			TimeoutSeconds:      60,
			MaxTokens:           300,
			Temperature:         0.8,
			DuplicateThreshold:  0.6,
			ModelClassification: true,
		},
		Capture: CaptureConfig{
			TimeoutSeconds: 10,
			MaxSaved:       10,
		},
		Prompt: PromptConfig{
			MaxTokens: 2000,
		},
		Pet: PetConfig{
			BubbleSeconds: 8,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8765",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// GlobalConfigPath returns the path to the config file. MIAOMIAO_CONFIG
// overrides the default location.
func GlobalConfigPath() (string, error) {
	if v := os.Getenv("MIAOMIAO_CONFIG"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "miaomiao", "config.toml"), nil
}

// LoadGlobal loads the config file, applying defaults for any missing values.
func LoadGlobal() (GlobalConfig, error) {
	path, err := GlobalConfigPath()
	if err != nil {
		cfg := DefaultGlobal()
		applyEnv(&cfg)
		return cfg, nil // Defaults if we can't determine home dir.
	}
	return LoadFile(path)
}

// LoadFile loads the config at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func LoadFile(path string) (GlobalConfig, error) {
	cfg := DefaultGlobal()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return DefaultGlobal(), fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv lets env vars override config file values.
func applyEnv(cfg *GlobalConfig) {
	overrides := []struct {
		key string
		dst *string
	}{
		{"DASHSCOPE_API_KEY", &cfg.Keys.DashScope},
		{"OPENAI_API_KEY", &cfg.Keys.OpenAI},
		{"ANTHROPIC_API_KEY", &cfg.Keys.Anthropic},
		{"GEMINI_API_KEY", &cfg.Keys.Gemini},
		{"MIAOMIAO_STATE_DIR", &cfg.StateDir},
		{"MIAOMIAO_PROVIDER", &cfg.Provider},
		{"MIAOMIAO_MODEL", &cfg.Model},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.key); v != "" {
			*o.dst = v
		}
	}
}

// SaveGlobal writes the config to the default path.
func SaveGlobal(cfg GlobalConfig) error {
	path, err := GlobalConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

// SaveFile writes cfg as TOML to path.
func SaveFile(path string, cfg GlobalConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: mkdir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create config: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Validate reports the first out-of-range setting.
func (c GlobalConfig) Validate() error {
	switch {
	case !slices.Contains(Providers, c.Provider):
		return fmt.Errorf("config: unknown provider %q (want one of %s)", c.Provider, strings.Join(Providers, ", "))
	case c.Analysis.IntervalSeconds < 0:
		return fmt.Errorf("config: analysis.interval_seconds must be >= 0")
	case c.Analysis.TimeoutSeconds <= 0:
		return fmt.Errorf("config: analysis.timeout_seconds must be > 0")
	case c.Analysis.MaxTokens <= 0:
		return fmt.Errorf("config: analysis.max_tokens must be > 0")
	case c.Analysis.Temperature < 0 || c.Analysis.Temperature > 2:
		return fmt.Errorf("config: analysis.temperature must be within [0, 2]")
	case c.Analysis.DuplicateThreshold <= 0 || c.Analysis.DuplicateThreshold > 1:
		return fmt.Errorf("config: analysis.duplicate_threshold must be within (0, 1]")
	case c.Capture.TimeoutSeconds <= 0:
		return fmt.Errorf("config: capture.timeout_seconds must be > 0")
	case c.Capture.MaxSaved < 0:
		return fmt.Errorf("config: capture.max_saved must be >= 0")
	case c.Prompt.MaxTokens < 0:
		return fmt.Errorf("config: prompt.max_tokens must be >= 0")
	case c.Pet.BubbleSeconds < 0:
		return fmt.Errorf("config: pet.bubble_seconds must be >= 0")
	case !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.Log.Level)):
		return fmt.Errorf("config: unknown log.level %q", c.Log.Level)
	case c.Log.Format != "text" && c.Log.Format != "json":
		return fmt.Errorf("config: log.format must be text or json")
	}
	return nil
}

// APIKey returns the key for the configured provider. Ollama needs none.
func (c GlobalConfig) APIKey() string {
	switch c.Provider {
	case "dashscope":
		return c.Keys.DashScope
	case "openai":
		return c.Keys.OpenAI
	case "claude":
		return c.Keys.Anthropic
	case "gemini":
		return c.Keys.Gemini
	}
	return ""
}

// ResolvedStateDir returns StateDir, defaulting to
// ~/.config/miaomiao/state.
func (c GlobalConfig) ResolvedStateDir() (string, error) {
	if c.StateDir != "" {
		return c.StateDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve state dir: %w", err)
	}
	return filepath.Join(home, ".config", "miaomiao", "state"), nil
}

// Paths are the files under the state directory.
type Paths struct {
	Favorability string
	Activity     string
	Messages     string
	Journal      string
	Archive      string
}

// StatePaths returns the state file locations.
func (c GlobalConfig) StatePaths() (Paths, error) {
	dir, err := c.ResolvedStateDir()
	if err != nil {
		return Paths{}, err
	}
	archive := c.Capture.ArchiveDir
	if archive == "" {
		archive = filepath.Join(dir, "screenshots")
	}
	return Paths{
		Favorability: filepath.Join(dir, "favorability.json"),
		Activity:     filepath.Join(dir, "activity.json"),
		Messages:     filepath.Join(dir, "messages.json"),
		Journal:      filepath.Join(dir, "journal.db"),
		Archive:      archive,
	}, nil
}
