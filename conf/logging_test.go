package conf

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevelAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggingConfig{
		Level:  "warn",
		Format: "json",
		Fields: map[string]string{"service": "inviter"},
	}, &buf)

	logger.Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn().Str("code", "abc").Msg("kept")
	entry := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "inviter", entry["service"])
	assert.Equal(t, "abc", entry["code"])
	assert.Equal(t, "kept", entry["message"])
}

func TestNewLoggerDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggingConfig{Level: "loud"}, &buf)

	logger.Debug().Msg("dropped")
	assert.Zero(t, buf.Len())
	logger.Info().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestConsoleFormatCaller(t *testing.T) {
	assert.Equal(t, "api/api.go:12", consoleFormatCaller("/src/inviter/api/api.go:12"))
	assert.Equal(t, "main.go:3", consoleFormatCaller("main.go:3"))
	assert.Equal(t, "", consoleFormatCaller(nil))
}
