package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"none", zerolog.Disabled},
		{"garbage", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, parseLevel(tt.input), "level %q", tt.input)
	}
}

func TestJSONLoggerOutput(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, "info")

	logger.Info().Str("component", "chain").Msg("connected")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "connected", entry["message"])
	assert.Equal(t, "chain", entry["component"])
}

func TestJSONLoggerRespectsLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, "warn")

	logger.Info().Msg("filtered")
	assert.Zero(t, buf.Len())

	logger.Warn().Msg("kept")
	assert.NotZero(t, buf.Len())
}

func TestConsoleLoggerWrites(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := NewConsoleLogger(&buf, "debug")

	logger.Debug().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
}
