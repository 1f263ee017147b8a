package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewWithWriter_Levels(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn")
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())

	log.Info().Msg("hidden")
	assert.Empty(t, buf.String())
	log.Warn().Str("season", "70").Msg("shown")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "season=")

	assert.Equal(t, zerolog.InfoLevel, NewWithWriter(&buf, "bogus").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, NewWithWriter(&buf, "").GetLevel())
}
