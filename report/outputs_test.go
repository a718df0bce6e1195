package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sowinskl/retrycmd/retry"
	"github.com/sowinskl/retrycmd/syscmd"
)

func TestOutputs_Set(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := test.NewNullLogger()
	o := NewOutputs(&buf, logger)

	require.NoError(t, o.Set("exit_code", "2"))
	assert.Equal(t, "exit_code=2\n", buf.String())
}

func TestOutputs_SetMultiline(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := test.NewNullLogger()
	o := NewOutputs(&buf, logger)

	require.NoError(t, o.Set("exit_error", "line one\nline two"))

	re := regexp.MustCompile(`^exit_error<<(ghadelimiter_[0-9a-f]{32})\nline one\nline two\n(ghadelimiter_[0-9a-f]{32})\n$`)
	m := re.FindStringSubmatch(buf.String())
	require.NotNil(t, m, buf.String())
	assert.Equal(t, m[1], m[2])
}

func TestOutputs_NoWriter(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	o := NewOutputs(nil, logger)

	require.NoError(t, o.Set("exit_code", "0"))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "output exit_code=0", hook.LastEntry().Message)
}

func TestOutputs_Reporter(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := test.NewNullLogger()
	o := NewOutputs(&buf, logger)

	o.AttemptFinished(1, syscmd.Outcome{Attempt: 1, Kind: syscmd.OutcomeExitError, ExitCode: 2})
	o.AttemptFinished(2, syscmd.Outcome{Attempt: 2, Kind: syscmd.OutcomeExitError, ExitCode: 2})
	o.RunFinished(retry.Result{
		Attempts: 2,
		ExitCode: 2,
		Err:      errors.New("Final attempt failed. process exited with error code 2"),
		State:    retry.StateFailedFinal,
	})

	assert.Equal(t,
		"total_attempts=1\n"+
			"total_attempts=2\n"+
			"total_attempts=2\n"+
			"exit_error=Final attempt failed. process exited with error code 2\n"+
			"exit_code=2\n",
		buf.String())
}

func TestOutputs_ReporterSuccess(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := test.NewNullLogger()
	o := NewOutputs(&buf, logger)

	o.RunFinished(retry.Result{Attempts: 1, State: retry.StateSucceeded})

	assert.Equal(t, "total_attempts=1\nexit_code=0\n", buf.String())
}

func TestOpenOutputs(t *testing.T) {
	logger, _ := test.NewNullLogger()
	path := filepath.Join(t.TempDir(), "output")
	require.NoError(t, os.WriteFile(path, []byte("existing=1\n"), 0o644))

	o, err := OpenOutputs(path, logger)
	require.NoError(t, err)
	require.NoError(t, o.Set("exit_code", "0"))
	require.NoError(t, o.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "existing=1\nexit_code=0\n", string(data))
}

func TestOpenOutputs_EmptyPath(t *testing.T) {
	logger, _ := test.NewNullLogger()
	o, err := OpenOutputs("", logger)
	require.NoError(t, err)
	require.NoError(t, o.Set("exit_code", "0"))
	assert.NoError(t, o.Close())
}

func TestOpenOutputs_BadPath(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, err := OpenOutputs(filepath.Join(t.TempDir(), "missing", "output"), logger)
	assert.Error(t, err)
}
