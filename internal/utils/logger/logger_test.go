package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestLevelFor(t *testing.T) {
	assert.Equal(t, zerolog.TraceLevel, LevelFor("dev", ""))
	assert.Equal(t, zerolog.TraceLevel, LevelFor("TEST", ""))
	assert.Equal(t, zerolog.InfoLevel, LevelFor("prod", ""))
	assert.Equal(t, zerolog.InfoLevel, LevelFor("staging", ""))
	assert.Equal(t, zerolog.DebugLevel, LevelFor("prod", "debug"))
	assert.Equal(t, zerolog.InfoLevel, LevelFor("prod", "verbose"))
}

func TestInitWithWriter(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	var buf bytes.Buffer
	InitWithWriter(&buf, "prod", "")

	log.Debug().Msg("hidden")
	log.Info().Msg("visible")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
