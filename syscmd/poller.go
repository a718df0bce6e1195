package syscmd

import (
	"time"

	"github.com/coder/quartz"
)

// DefaultPollInterval is used when a Poller has no interval set.
const DefaultPollInterval = time.Second

// PollResult is how a Poller wait ended.
type PollResult int

const (
	Completed PollResult = iota + 1
	TimedOut
)

// String returns a human-readable name for the result.
func (r PollResult) String() string {
	switch r {
	case Completed:
		return "completed"
	case TimedOut:
		return "timed-out"
	default:
		return "unknown"
	}
}

// Liveness reports whether a process has finished.
type Liveness interface {
	Done() bool
}

// Poller waits for a process by sleeping Interval and then checking its
// Done flag, until the flag is set or the deadline passes.
type Poller struct {
	Interval time.Duration
	Clock    quartz.Clock
}

// Wait sleeps at least once. A zero deadline never expires. On each
// iteration the done flag is read before the deadline is compared, so a
// process observed as finished wins over a deadline passing at the same time.
func (p Poller) Wait(proc Liveness, deadline time.Time) PollResult {
	clock := p.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	for {
		sleep(clock, interval, "Poller", "sleep")
		if proc.Done() {
			return Completed
		}
		if !deadline.IsZero() && !clock.Now("Poller", "deadline").Before(deadline) {
			return TimedOut
		}
	}
}

// sleep blocks for d on clock. There is no way to interrupt it.
func sleep(clock quartz.Clock, d time.Duration, tags ...string) {
	if d <= 0 {
		return
	}
	t := clock.NewTimer(d, tags...)
	<-t.C
}
