package report

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sowinskl/retrycmd/rabbitmq"
	"github.com/sowinskl/retrycmd/retry"
	"github.com/sowinskl/retrycmd/syscmd"
)

// defaultPublishTimeout bounds how long publishing the final event may take.
const defaultPublishTimeout = 10 * time.Second

// Event is the JSON document published when a run finishes.
type Event struct {
	Command    string    `json:"command"`
	Attempts   int       `json:"attempts"`
	ExitCode   int       `json:"exit_code"`
	Error      string    `json:"error,omitempty"`
	State      string    `json:"state"`
	Succeeded  bool      `json:"succeeded"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewEvent builds the event for res.
func NewEvent(command string, res retry.Result, at time.Time) Event {
	return Event{
		Command:    command,
		Attempts:   res.Attempts,
		ExitCode:   res.ExitCode,
		Error:      res.Message(),
		State:      res.State.String(),
		Succeeded:  res.Succeeded(),
		FinishedAt: at.UTC(),
	}
}

// Publisher sends a payload to a broker.
type Publisher interface {
	PublishWithRetry(ctx context.Context, payload any, p rabbitmq.Publishing) error
}

// Events publishes the final result of a run. Publish failures are logged
// and never change the run outcome.
type Events struct {
	pub     Publisher
	target  rabbitmq.Publishing
	command string
	logger  logrus.FieldLogger
	timeout time.Duration
	now     func() time.Time
}

var _ retry.Reporter = (*Events)(nil)

// NewEvents creates an event reporter for command.
func NewEvents(pub Publisher, target rabbitmq.Publishing, command string, logger logrus.FieldLogger) *Events {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Events{
		pub:     pub,
		target:  target,
		command: command,
		logger:  logger,
		timeout: defaultPublishTimeout,
		now:     time.Now,
	}
}

// AttemptFinished does nothing; only final results are published.
func (e *Events) AttemptFinished(int, syscmd.Outcome) {}

// RunFinished publishes the result event.
func (e *Events) RunFinished(res retry.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	event := NewEvent(e.command, res, e.now())
	if err := e.pub.PublishWithRetry(ctx, event, e.target); err != nil {
		e.logger.Warnf("Failed to publish result event: %v", err)
		return
	}
	e.logger.Debugf("Published result event to %q with key %q", e.target.Exchange, e.target.RoutingKey)
}
