// Package metrics exposes run and attempt counters in the Prometheus
// exposition format.
//
// A command-line run is too short-lived to be scraped, so the collected
// metrics are either written to a textfile for the node exporter's textfile
// collector or pushed to a Pushgateway when the run ends.
package metrics

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/sowinskl/retrycmd/retry"
	"github.com/sowinskl/retrycmd/syscmd"
)

const namespace = "retrycmd"

// outcomeSpawnError labels attempts whose process never started.
const outcomeSpawnError = "spawn_error"

// Collector records attempt and run metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	attempts        *prometheus.CounterVec
	attemptDuration prometheus.Histogram
	runExitCode     prometheus.Gauge
	runAttempts     prometheus.Gauge
	runSuccess      prometheus.Gauge

	mu       sync.Mutex
	finished bool
}

var _ retry.Reporter = (*Collector)(nil)

// NewCollector creates a collector with a fresh registry.
func NewCollector() *Collector {
	return NewCollectorWithRegistry(prometheus.NewRegistry())
}

// NewCollectorWithRegistry creates a collector registered on reg.
func NewCollectorWithRegistry(reg *prometheus.Registry) *Collector {
	c := &Collector{
		registry: reg,
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "attempts_total",
				Help:      "Attempts made, by outcome",
			},
			[]string{"outcome"},
		),
		attemptDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "attempt_duration_seconds",
				Help:      "Wall time of each attempt, excluding cooldown",
				Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
			},
		),
		runExitCode: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "run_exit_code",
				Help:      "Exit code of the finished run",
			},
		),
		runAttempts: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "run_attempts",
				Help:      "Number of attempts the finished run made",
			},
		),
		runSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "run_success",
				Help:      "1 if the run succeeded, 0 otherwise",
			},
		),
	}

	reg.MustRegister(
		c.attempts,
		c.attemptDuration,
		c.runExitCode,
		c.runAttempts,
		c.runSuccess,
	)
	return c
}

// Registry returns the registry metrics are recorded on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// AttemptFinished counts one attempt.
func (c *Collector) AttemptFinished(_ int, o syscmd.Outcome) {
	label := o.Kind.String()
	if o.Kind == 0 {
		label = outcomeSpawnError
	}
	c.attempts.WithLabelValues(label).Inc()
	if o.Kind != 0 {
		c.attemptDuration.Observe(o.Duration.Seconds())
	}
}

// RunFinished records the final result.
func (c *Collector) RunFinished(res retry.Result) {
	c.runExitCode.Set(float64(res.ExitCode))
	c.runAttempts.Set(float64(res.Attempts))
	if res.Succeeded() {
		c.runSuccess.Set(1)
	} else {
		c.runSuccess.Set(0)
	}

	c.mu.Lock()
	c.finished = true
	c.mu.Unlock()
}

// Finished reports whether RunFinished has been called.
func (c *Collector) Finished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finished
}

// WriteTextfile writes all metrics to path atomically.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Push replaces the metrics of job on the Pushgateway at url.
func (c *Collector) Push(ctx context.Context, url, job string) error {
	err := push.New(url, job).
		Gatherer(c.registry).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
