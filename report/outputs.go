package report

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/sowinskl/retrycmd/retry"
	"github.com/sowinskl/retrycmd/syscmd"
)

// Output keys.
const (
	KeyTotalAttempts = "total_attempts"
	KeyExitCode      = "exit_code"
	KeyExitError     = "exit_error"
)

// Outputs writes key=value lines in the format of a $GITHUB_OUTPUT file.
// Later values for a key override earlier ones.
type Outputs struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	logger logrus.FieldLogger
}

var _ retry.Reporter = (*Outputs)(nil)

// NewOutputs writes to w. With a nil w, outputs are only logged at debug
// level.
func NewOutputs(w io.Writer, logger logrus.FieldLogger) *Outputs {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Outputs{w: w, logger: logger}
}

// OpenOutputs appends to the file at path. An empty path behaves like
// NewOutputs(nil, logger).
func OpenOutputs(path string, logger logrus.FieldLogger) (*Outputs, error) {
	if path == "" {
		return NewOutputs(nil, logger), nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}
	o := NewOutputs(f, logger)
	o.closer = f
	return o, nil
}

// Set records one output. Multi-line values use a heredoc delimiter.
func (o *Outputs) Set(key, value string) error {
	o.logger.Debugf("output %s=%s", key, value)
	if o.w == nil {
		return nil
	}

	var line string
	if strings.ContainsAny(value, "\r\n") {
		delim, err := delimiter()
		if err != nil {
			return err
		}
		line = fmt.Sprintf("%s<<%s\n%s\n%s\n", key, delim, value, delim)
	} else {
		line = fmt.Sprintf("%s=%s\n", key, value)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if _, err := io.WriteString(o.w, line); err != nil {
		return fmt.Errorf("write output %s: %w", key, err)
	}
	return nil
}

// AttemptFinished updates total_attempts.
func (o *Outputs) AttemptFinished(attempt int, _ syscmd.Outcome) {
	o.set(KeyTotalAttempts, strconv.Itoa(attempt))
}

// RunFinished writes exit_code, and exit_error for a failed run.
func (o *Outputs) RunFinished(res retry.Result) {
	o.set(KeyTotalAttempts, strconv.Itoa(res.Attempts))
	if res.Err != nil {
		o.set(KeyExitError, res.Message())
	}
	o.set(KeyExitCode, strconv.Itoa(res.ExitCode))
}

// Close closes the underlying file, if OpenOutputs opened one.
func (o *Outputs) Close() error {
	if o.closer == nil {
		return nil
	}
	return o.closer.Close()
}

func (o *Outputs) set(key, value string) {
	if err := o.Set(key, value); err != nil {
		o.logger.Warnf("Failed to set output %s: %v", key, err)
	}
}

func delimiter() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("output delimiter: %w", err)
	}
	return "ghadelimiter_" + hex.EncodeToString(b), nil
}
