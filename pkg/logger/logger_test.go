package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umebot/insight/pkg/config"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output: %s", buf.String())
	return entry
}

func TestNew(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log := New(&config.Config{Env: "development", LogLevel: tt.level, LogFormat: "json"})
			require.NotNil(t, log)
			assert.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"DEBUG", zerolog.DebugLevel},
		{"warning", zerolog.WarnLevel},
		{"fatal", zerolog.FatalLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.input), "input %q", tt.input)
	}
}

func TestComponentAndFields(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug")

	log.Component("causal.effect").WithFields(map[string]interface{}{
		"factor":      "has_promotion",
		"sample_size": 120,
	}).Debug("effect estimated")

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "causal.effect", entry["component"])
	assert.Equal(t, "has_promotion", entry["factor"])
	assert.Equal(t, float64(120), entry["sample_size"])
	assert.Equal(t, "effect estimated", entry["message"])
	assert.Equal(t, "debug", entry["level"])
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info")

	log.WithError(errors.New("weather source unreachable")).Warn("falling back")

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "weather source unreachable", entry["error"])
	assert.Equal(t, "warn", entry["level"])
}

func TestWriterLevelFilters(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn")

	log.Info("dropped")
	assert.Zero(t, buf.Len())

	log.WithField("rows", 1).Warn("kept")
	assert.Contains(t, buf.String(), "kept")
	assert.Contains(t, buf.String(), `"rows":1`)
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().WithField("k", "v").Error("nothing")
	})
}
