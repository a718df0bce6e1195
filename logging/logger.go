// Package logging builds the logrus logger retrycmd reports through.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New creates a logger writing to out in the given format.
// Format should be "text", "json" or "actions".
// Level should be "debug", "info", "warn", or "error".
func New(format, level string, out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stderr
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(ParseLevel(level))
	logger.SetFormatter(NewFormatter(format))
	return logger
}

// NewFormatter returns the formatter for format, defaulting to text.
func NewFormatter(format string) logrus.Formatter {
	switch strings.ToLower(format) {
	case "json":
		return &logrus.JSONFormatter{}
	case "actions":
		return &ActionsFormatter{}
	default:
		return &logrus.TextFormatter{FullTimestamp: true}
	}
}

// ParseLevel converts a string level to a logrus level, defaulting to info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
