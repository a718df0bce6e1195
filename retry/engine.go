// Package retry decides, after each failed attempt of a command, whether to
// run it again, and reports the final result of the run.
package retry

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/sowinskl/retrycmd/syscmd"
)

// Hook runs between a failed attempt and the next one.
type Hook interface {
	Run() error
}

// Reporter receives the observable state of a run.
type Reporter interface {
	// AttemptFinished is called after every attempt, including one that
	// could not be spawned (o.Kind is zero then).
	AttemptFinished(attempt int, o syscmd.Outcome)

	// RunFinished is called exactly once with the final result.
	RunFinished(res Result)
}

// Engine runs attempts until one succeeds, the attempt budget is spent or a
// failure is not eligible for retry.
type Engine struct {
	cfg      Config
	exec     syscmd.Executor
	hook     Hook
	reporter Reporter
	logger   logrus.FieldLogger

	state   State
	stateMu sync.RWMutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithHook sets the hook run before each retry.
func WithHook(h Hook) Option {
	return func(e *Engine) { e.hook = h }
}

// WithReporter sets where attempt counts and the final result are sent.
func WithReporter(r Reporter) Option {
	return func(e *Engine) { e.reporter = r }
}

// WithLogger sets the log sink.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine for cfg that runs attempts with exec.
func New(cfg Config, exec syscmd.Executor, opts ...Option) *Engine {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.RetryOn == "" {
		cfg.RetryOn = RetryOnAny
	}

	e := &Engine{
		cfg:    cfg,
		exec:   exec,
		logger: logrus.StandardLogger(),
		state:  StateCreated,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run performs the attempts and returns the final result. It never panics
// on expected failures; every failure ends up in Result.Err.
func (e *Engine) Run() Result {
	e.setState(StateRunning)

	for attempt := 1; ; attempt++ {
		outcome, err := e.exec.Execute(attempt)
		e.attemptFinished(attempt, outcome)

		if err != nil {
			return e.finish(Result{
				Attempts: attempt,
				ExitCode: 1,
				Err:      err,
				State:    StateAborted,
			})
		}

		if outcome.Succeeded() {
			e.logger.Infof("Command completed after %d attempt(s).", attempt)
			return e.finish(Result{
				Attempts: attempt,
				State:    StateSucceeded,
				Outcome:  outcome,
			})
		}

		failure := outcome.Err()
		res := Result{
			Attempts: attempt,
			ExitCode: exitCodeOf(outcome),
			Outcome:  outcome,
		}

		if attempt >= e.cfg.MaxAttempts {
			res.Err = &FinalAttemptError{Err: failure}
			res.State = StateFailedFinal
			return e.finish(res)
		}

		decision := Decide(e.cfg, outcome)
		if !decision.Retry {
			res.Err = failure
			res.State = StateAborted
			if decision.Mismatch {
				e.logger.Warnf("Early exited because the output didn't match the pattern: '%s'", e.cfg.Pattern)
				res.Err = &PatternMismatchError{Pattern: e.cfg.Pattern, Err: failure}
			} else {
				e.logger.Debugf("Attempt %d not retried: %s", attempt, decision.Reason)
			}
			return e.finish(res)
		}

		e.runHook()
		if e.cfg.WarningOnRetry {
			e.logger.Warnf("Attempt %d failed. Reason: %v", attempt, failure)
		} else {
			e.logger.Infof("Attempt %d failed. Reason: %v", attempt, failure)
		}
	}
}

// runHook runs the retry hook. Its failure is logged and otherwise ignored.
func (e *Engine) runHook() {
	if e.hook == nil {
		return
	}
	if err := e.hook.Run(); err != nil {
		e.logger.Warnf("Retry command threw the error %v", err)
	}
}

func (e *Engine) attemptFinished(attempt int, o syscmd.Outcome) {
	if e.reporter != nil {
		e.reporter.AttemptFinished(attempt, o)
	}
}

func (e *Engine) finish(res Result) Result {
	e.setState(res.State)

	if res.Err != nil {
		if e.cfg.ContinueOnError {
			e.logger.Warn(res.Err.Error())
		} else {
			e.logger.Error(res.Err.Error())
		}
	}

	if e.reporter != nil {
		e.reporter.RunFinished(res)
	}
	return res
}

// State returns the current state of the run.
func (e *Engine) State() State {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.stateMu.Lock()
	e.state = s
	e.stateMu.Unlock()
}

// exitCodeOf returns the exit code forwarded for a failed attempt. Timeouts
// forward none, so they report 1.
func exitCodeOf(o syscmd.Outcome) int {
	if o.Kind == syscmd.OutcomeExitError && o.ExitCode > 0 {
		return o.ExitCode
	}
	return 1
}
