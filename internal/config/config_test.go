package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"RAIDMETRICS_DB", "LOG_LEVEL", "CACHE_TTL", "RAIDMETRICS_GUILD", "RAIDMETRICS_SEASON", "RAIDMETRICS_API_URL", "ANTHROPIC_MODEL"} {
		t.Setenv(k, "")
	}
	cfg, err := Load(zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, DefaultDBPath(), cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, DefaultModel, cfg.AnthropicModel)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Empty(t, cfg.Guild)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("RAIDMETRICS_DB", "/tmp/raids.db")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("RAIDMETRICS_GUILD", "G1")
	t.Setenv("RAIDMETRICS_SEASON", "70")
	t.Setenv("RAIDMETRICS_API_KEY", "k1")

	cfg, err := Load(zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "/tmp/raids.db", cfg.DBPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, "G1", cfg.Guild)
	assert.Equal(t, "70", cfg.Season)
	assert.Equal(t, "k1", cfg.APIKey)
}

func TestLoad_InvalidTTL(t *testing.T) {
	for _, v := range []string{"soon", "-1m", "0s"} {
		t.Setenv("CACHE_TTL", v)
		_, err := Load(zerolog.Nop())
		assert.ErrorIs(t, err, ErrInvalidTTL, v)
	}
}
