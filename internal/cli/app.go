package cli

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/miaomiao/miaomiao/internal/activity"
	"github.com/miaomiao/miaomiao/internal/adapter"
	"github.com/miaomiao/miaomiao/internal/capture"
	"github.com/miaomiao/miaomiao/internal/config"
	"github.com/miaomiao/miaomiao/internal/cycle"
	"github.com/miaomiao/miaomiao/internal/db"
	"github.com/miaomiao/miaomiao/internal/favor"
	"github.com/miaomiao/miaomiao/internal/history"
	"github.com/miaomiao/miaomiao/internal/journal"
	"github.com/miaomiao/miaomiao/internal/pet"
	"github.com/miaomiao/miaomiao/internal/prompt"
	"github.com/miaomiao/miaomiao/internal/store"
)

// keyEnv names the environment variable holding each provider's key.
var keyEnv = map[string]string{
	adapter.ProviderDashScope: "DASHSCOPE_API_KEY",
	adapter.ProviderOpenAI:    "OPENAI_API_KEY",
	adapter.ProviderClaude:    "ANTHROPIC_API_KEY",
	adapter.ProviderGemini:    "GEMINI_API_KEY",
}

// app holds everything a command needs. The records are always opened;
// the vision pipeline only when a command calls withPet.
type app struct {
	cfg     config.GlobalConfig
	cfgPath string
	paths   config.Paths
	logger  *slog.Logger

	tracker  *activity.Tracker
	engine   *favor.Engine
	guard    *history.Guard
	database *db.DB
	journal  *journal.Store

	pet *pet.Pet
}

// configPath returns the --config flag or the default location.
func configPath() (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	return config.GlobalConfigPath()
}

// loadConfig reads the dotenv files and the config file, then validates
// the result.
func loadConfig() (config.GlobalConfig, string, error) {
	config.LoadDotEnv(nil)

	path, err := configPath()
	if err != nil {
		return config.GlobalConfig{}, "", fmt.Errorf("resolve config path: %w", err)
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return cfg, path, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, path, err
	}
	return cfg, path, nil
}

// newLogger builds the slog logger described by cfg.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openApp loads the config and opens the three records and the journal.
func openApp() (*app, error) {
	cfg, path, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	paths, err := cfg.StatePaths()
	if err != nil {
		return nil, err
	}

	database, err := db.Open(paths.Journal)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	return &app{
		cfg:      cfg,
		cfgPath:  path,
		paths:    paths,
		logger:   logger,
		tracker:  activity.NewTracker(store.NewSlot[activity.Stats](paths.Activity, logger), time.Now),
		engine:   favor.NewEngine(store.NewSlot[favor.State](paths.Favorability, logger), time.Now),
		guard:    history.NewGuard(store.NewSlot[history.Log](paths.Messages, logger), time.Now),
		database: database,
		journal:  journal.NewStore(database),
	}, nil
}

// Close releases the journal database.
func (a *app) Close() error {
	return a.database.Close()
}

// checkAPIKey fails when the configured provider needs a key and none is
// set.
func (a *app) checkAPIKey() error {
	if !adapter.NeedsAPIKey(a.cfg.Provider) || a.cfg.APIKey() != "" {
		return nil
	}
	return fmt.Errorf("no API key for provider %q: set %s or keys.%s in %s",
		a.cfg.Provider, keyEnv[a.cfg.Provider], keyField(a.cfg.Provider), a.cfgPath)
}

func keyField(provider string) string {
	if provider == adapter.ProviderClaude {
		return "anthropic"
	}
	return provider
}

// withPet builds the vision pipeline: adapter, capturer, composer and the
// cycle orchestrator behind a Pet.
func (a *app) withPet() error {
	if err := a.checkAPIKey(); err != nil {
		return err
	}
	cfg := a.cfg

	baseURL := cfg.BaseURL
	if baseURL == "" && cfg.Provider == adapter.ProviderOllama {
		baseURL = cfg.Ollama.Host
	}
	vision, err := adapter.New(adapter.Options{
		Provider: cfg.Provider,
		APIKey:   cfg.APIKey(),
		BaseURL:  baseURL,
		Model:    cfg.Model,
		JSONMode: cfg.JSONMode,
	})
	if err != nil {
		return err
	}

	var archive *capture.Archive
	if cfg.Capture.MaxSaved > 0 {
		archive = capture.NewArchive(a.paths.Archive, cfg.Capture.MaxSaved, a.logger)
	}
	capturer := capture.NewCommandCapturer(cfg.Capture.Command,
		time.Duration(cfg.Capture.TimeoutSeconds)*time.Second, archive, a.logger)

	// One source for the composer and the tier-change pick; only the
	// in-flight cycle touches it.
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	var opts []prompt.Option
	if cfg.Prompt.MaxTokens > 0 {
		tok, err := prompt.NewTokenizer()
		if err != nil {
			a.logger.Warn("prompt: token budget disabled", "err", err)
		} else {
			opts = append(opts, prompt.WithTokenBudget(tok, cfg.Prompt.MaxTokens))
		}
	}

	orch := cycle.New(cycle.Deps{
		Capturer: capturer,
		Resizer:  capture.ImageResizer{},
		Vision:   vision,
		Tracker:  a.tracker,
		Engine:   a.engine,
		Guard:    a.guard,
		Composer: prompt.NewComposer(rnd, opts...),
		Journal:  a.journal,
		Random:   rnd,
		Logger:   a.logger,
	}, cycle.Options{
		Model:                   cfg.Model,
		VisionTimeout:           time.Duration(cfg.Analysis.TimeoutSeconds) * time.Second,
		MaxTokens:               cfg.Analysis.MaxTokens,
		Temperature:             cfg.Analysis.Temperature,
		DuplicateThreshold:      cfg.Analysis.DuplicateThreshold,
		SkipModelClassification: !cfg.Analysis.ModelClassification,
	})

	info := vision.Info()
	a.logger.Debug("vision adapter ready", "provider", info.Provider, "model", info.Name)
	a.pet = pet.New(orch, a.tracker, a.engine, a.logger)
	return nil
}

// bubble is how long a renderer should show each comment.
func (a *app) bubble() time.Duration {
	return time.Duration(a.cfg.Pet.BubbleSeconds) * time.Second
}

// interval is the auto-analysis period; zero disables the timer.
func (a *app) interval() time.Duration {
	return intervalOf(a.cfg)
}

func intervalOf(cfg config.GlobalConfig) time.Duration {
	return time.Duration(cfg.Analysis.IntervalSeconds) * time.Second
}
