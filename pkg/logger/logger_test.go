package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}

func TestInitWriterJSON(t *testing.T) {
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	InitWriter(&buf, "warn", "json")

	log.Info().Msg("dropped")
	log.Warn().Str("session_id", "abc").Msg("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "abc", entry["session_id"])
	assert.Equal(t, "medpres", entry["service"])
	assert.Equal(t, "warn", entry["level"])
}
