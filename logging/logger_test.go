package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		"DEBUG":   logrus.DebugLevel,
		"info":    logrus.InfoLevel,
		"warn":    logrus.WarnLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"":        logrus.InfoLevel,
		"bogus":   logrus.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New("json", "info", &buf)
	logger.WithField("attempt", 2).Warn("Attempt 2 failed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "Attempt 2 failed", entry["msg"])
	assert.Equal(t, float64(2), entry["attempt"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := New("text", "warn", &buf)
	logger.Info("hidden")
	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestActionsFormatter(t *testing.T) {
	var buf bytes.Buffer
	logger := New("actions", "debug", &buf)

	logger.Info("Command completed after 1 attempt(s).")
	logger.Warn("Attempt 1 failed. Reason: 100% broken")
	logger.Error("Final attempt failed.\nsecond line")
	logger.Debug("Code: 1")
	logger.WithField("pid", 42).Info("started")

	assert.Equal(t, "Command completed after 1 attempt(s).\n"+
		"::warning::Attempt 1 failed. Reason: 100%25 broken\n"+
		"::error::Final attempt failed.%0Asecond line\n"+
		"::debug::Code: 1\n"+
		"started pid=42\n", buf.String())
}
