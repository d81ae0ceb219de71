package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_StructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.Info().Str("session_id", "abc").Msg("client connected")

	var output map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &output)
	require.NoError(t, err, "logger output should be valid JSON")

	assert.Equal(t, "client connected", output["message"])
	assert.Equal(t, "abc", output["session_id"])
	assert.Equal(t, "info", output["level"])
	assert.Contains(t, output, "time")
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("warn", &buf)

	log.Info().Msg("should not appear")
	assert.Empty(t, buf.String())

	log.Warn().Msg("should appear")
	assert.NotEmpty(t, buf.String())
}

func TestParseLevel_UnknownDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("bogus", &buf)

	log.Debug().Msg("filtered")
	assert.Empty(t, buf.String())

	log.Info().Msg("kept")
	assert.NotEmpty(t, buf.String())
}
