package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// DotEnvFiles are read from the working directory, most specific first.
var DotEnvFiles = []string{".env.local", ".env"}

// LoadDotEnv loads the dotenv files that exist. Variables already set in the
// environment are kept; an earlier file wins over a later one.
func LoadDotEnv(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, name := range DotEnvFiles {
		if _, err := os.Stat(name); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			logger.Warn("config: dotenv load failed", "file", name, "err", err)
			continue
		}
		logger.Debug("config: loaded dotenv", "file", name)
	}
}
