package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// ErrInvalidTTL is returned when CACHE_TTL is not a positive duration.
var ErrInvalidTTL = errors.New("invalid CACHE_TTL")

// DefaultModel is used by the analyze command when ANTHROPIC_MODEL is unset.
const DefaultModel = "claude-haiku-4-5-20251001"

// DefaultAPIURL is the raid API used by the fetch command.
const DefaultAPIURL = "https://api.tacticusgame.com/api/v1"

type Config struct {
	DBPath   string
	LogLevel string
	CacheTTL time.Duration

	Guild  string // default selection
	Season string

	APIURL string // raid API, for fetch
	APIKey string

	AnthropicAPIKey string
	AnthropicModel  string
}

// Load reads .env (when present) and the environment.
func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DBPath:          getEnv("RAIDMETRICS_DB", DefaultDBPath()),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Guild:           getEnv("RAIDMETRICS_GUILD", ""),
		Season:          getEnv("RAIDMETRICS_SEASON", ""),
		APIURL:          getEnv("RAIDMETRICS_API_URL", DefaultAPIURL),
		APIKey:          getEnv("RAIDMETRICS_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", DefaultModel),
	}

	ttl, err := time.ParseDuration(getEnv("CACHE_TTL", "5m"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTTL, os.Getenv("CACHE_TTL"))
	}
	cfg.CacheTTL = ttl

	logger.Debug().
		Str("db_path", cfg.DBPath).
		Str("log_level", cfg.LogLevel).
		Dur("cache_ttl", cfg.CacheTTL).
		Str("guild", cfg.Guild).
		Str("season", cfg.Season).
		Str("api_url", cfg.APIURL).
		Msg("configuration loaded")

	return cfg, nil
}

// DefaultDBPath is ~/.raidmetrics/raids.db, or ./raids.db without a home.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "raids.db"
	}
	return filepath.Join(home, ".raidmetrics", "raids.db")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
