package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"roachrace/meta"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	ENV_ADDR       = "ROACHRACE_ADDR"
	ENV_DB         = "ROACHRACE_DB"
	ENV_LOG_LEVEL  = "ROACHRACE_LOG_LEVEL"
	ENV_GOROUTINES = "ROACHRACE_GOROUTINES"
	ENV_SCRIPTS    = "ROACHRACE_SCRIPTS"
)

type Config struct {
	Addr       string
	DB         string
	LogLevel   zerolog.Level
	Goroutines int
	Scripts    string // Directory of Lua strategies, empty for none
}

// Load reads the given env files into the environment, then builds the
// configuration from it. Variables already set take precedence over the
// files. A missing file is skipped.
func Load(files ...string) (Config, error) {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				log.Debug().Msgf("no env file at %s", file)
				continue
			}
			return Config{}, fmt.Errorf("failed to load env file %s: %w", file, err)
		}
		log.Debug().Msgf("loaded env file %s", file)
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	c := Config{
		Addr:       getEnv(ENV_ADDR, meta.DEFAULT_ADDR),
		DB:         getEnv(ENV_DB, meta.DEFAULT_DB),
		LogLevel:   zerolog.InfoLevel,
		Goroutines: 1,
		Scripts:    os.Getenv(ENV_SCRIPTS),
	}

	if v := os.Getenv(ENV_LOG_LEVEL); v != "" {
		level, err := zerolog.ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", ENV_LOG_LEVEL, err)
		}
		c.LogLevel = level
	}

	if v := os.Getenv(ENV_GOROUTINES); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("invalid %s %q: must be a positive integer", ENV_GOROUTINES, v)
		}
		c.Goroutines = n
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
