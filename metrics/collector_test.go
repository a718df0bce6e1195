package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sowinskl/retrycmd/retry"
	"github.com/sowinskl/retrycmd/syscmd"
)

func TestCollector_AttemptFinished(t *testing.T) {
	c := NewCollector()

	c.AttemptFinished(1, syscmd.Outcome{Kind: syscmd.OutcomeTimedOut, Duration: time.Second})
	c.AttemptFinished(2, syscmd.Outcome{Kind: syscmd.OutcomeExitError, ExitCode: 2, Duration: 2 * time.Second})
	c.AttemptFinished(3, syscmd.Outcome{Kind: syscmd.OutcomeExitError, ExitCode: 2, Duration: time.Second})
	c.AttemptFinished(4, syscmd.Outcome{})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.attempts.WithLabelValues("timeout")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.attempts.WithLabelValues("exit_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.attempts.WithLabelValues("spawn_error")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.attemptDuration))
}

func TestCollector_RunFinished(t *testing.T) {
	tests := []struct {
		name     string
		res      retry.Result
		exitCode float64
		success  float64
	}{
		{
			name:    "success",
			res:     retry.Result{Attempts: 2, State: retry.StateSucceeded},
			success: 1,
		},
		{
			name:     "final failure",
			res:      retry.Result{Attempts: 3, ExitCode: 7, State: retry.StateFailedFinal},
			exitCode: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCollector()
			assert.False(t, c.Finished())

			c.RunFinished(tt.res)

			assert.True(t, c.Finished())
			assert.Equal(t, tt.exitCode, testutil.ToFloat64(c.runExitCode))
			assert.Equal(t, float64(tt.res.Attempts), testutil.ToFloat64(c.runAttempts))
			assert.Equal(t, tt.success, testutil.ToFloat64(c.runSuccess))
		})
	}
}

func TestCollector_WriteTextfile(t *testing.T) {
	c := NewCollector()
	c.AttemptFinished(1, syscmd.Outcome{Kind: syscmd.OutcomeSuccess})
	c.RunFinished(retry.Result{Attempts: 1, State: retry.StateSucceeded})

	path := filepath.Join(t.TempDir(), "retrycmd.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `retrycmd_attempts_total{outcome="success"} 1`)
	assert.Contains(t, string(data), "retrycmd_run_success 1")
}

func TestCollector_Push(t *testing.T) {
	var (
		mu     sync.Mutex
		path   string
		method string
		body   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		path, method, body = r.URL.Path, r.Method, string(b)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewCollector()
	c.RunFinished(retry.Result{Attempts: 1, State: retry.StateSucceeded})

	require.NoError(t, c.Push(context.Background(), srv.URL, "nightly"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.True(t, strings.HasSuffix(path, "/job/nightly"), path)
	assert.NotEmpty(t, body)
}

func TestCollector_PushError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewCollector()
	err := c.Push(context.Background(), srv.URL, "nightly")
	assert.ErrorContains(t, err, "push metrics")
}
