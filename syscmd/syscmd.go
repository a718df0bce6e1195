package syscmd

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/coder/quartz"
	"github.com/sirupsen/logrus"
)

// Executor runs one numbered attempt of a command.
type Executor interface {
	Execute(attempt int) (Outcome, error)
}

// Command provides a fluent interface for running a shell command attempt
// with timeout, cooldown and output pattern settings.
type Command struct {
	command      string
	retryCommand string
	shell        Shell
	timeout      time.Duration
	pollInterval time.Duration
	cooldown     backoff.BackOff
	pattern      *Pattern
	output       io.Writer
	clock        quartz.Clock
	logger       logrus.FieldLogger

	mu      sync.Mutex
	running *Process
}

const (
	// outputGrace bounds how long output still in the pipes is collected
	// after the child exits.
	outputGrace = 250 * time.Millisecond

	// killWait bounds how long a killed process is given to be reaped.
	killWait = 10 * time.Second
)

// Ensure Command implements Executor at compile time
var _ Executor = (*Command)(nil)

// New creates a command using the host's default shell, no timeout, a one
// second poll interval and no cooldown.
func New(command string) *Command {
	sh, _ := HostShell("")
	return &Command{
		command:      command,
		shell:        sh,
		pollInterval: DefaultPollInterval,
		cooldown:     backoff.NewConstantBackOff(0),
		clock:        quartz.NewReal(),
		logger:       logrus.StandardLogger(),
	}
}

// Shell sets the shell the command is run through.
func (c *Command) Shell(sh Shell) *Command {
	c.shell = sh
	return c
}

// Timeout sets the per-attempt deadline. Zero means unbounded.
func (c *Command) Timeout(timeout time.Duration) *Command {
	c.timeout = timeout
	return c
}

// PollInterval sets how often the process is checked for completion.
func (c *Command) PollInterval(interval time.Duration) *Command {
	c.pollInterval = interval
	return c
}

// RetryWait sets a constant cooldown after a failed attempt.
func (c *Command) RetryWait(wait time.Duration) *Command {
	c.cooldown = backoff.NewConstantBackOff(wait)
	return c
}

// Cooldown sets the schedule used for post-failure waits.
func (c *Command) Cooldown(b backoff.BackOff) *Command {
	c.cooldown = b
	return c
}

// RetryCommand sets an alternate command used on attempts after the first.
func (c *Command) RetryCommand(command string) *Command {
	c.retryCommand = command
	return c
}

// Pattern sets the output pattern evaluated when the process ends.
func (c *Command) Pattern(p *Pattern) *Command {
	c.pattern = p
	return c
}

// Output sets where child output is forwarded. Defaults to os.Stdout.
func (c *Command) Output(w io.Writer) *Command {
	c.output = w
	return c
}

// Clock sets the clock used for polling and cooldown.
func (c *Command) Clock(clock quartz.Clock) *Command {
	c.clock = clock
	return c
}

// Logger sets the logger for diagnostic messages.
func (c *Command) Logger(l logrus.FieldLogger) *Command {
	c.logger = l
	return c
}

// Reset restarts the cooldown schedule.
func (c *Command) Reset() {
	c.cooldown.Reset()
}

// CommandFor returns the command string used for attempt.
func (c *Command) CommandFor(attempt int) string {
	if attempt > 1 && c.retryCommand != "" {
		return c.retryCommand
	}
	return c.command
}

// Execute runs a single attempt. Only a spawn failure is returned as an
// error; timeouts and non-zero exits are reported in the Outcome. Every
// failed attempt is followed by the cooldown wait before Execute returns.
func (c *Command) Execute(attempt int) (Outcome, error) {
	command := c.CommandFor(attempt)
	c.logger.Debugf("Running command %s using shell %s", command, c.shell)

	out := &lockedWriter{w: c.output}
	if out.w == nil {
		out.w = os.Stdout
	}
	captured := newCapture(c.pattern)

	proc, err := Spawn(command, c.shell, Handlers{
		OnOutput: func(stream Stream, chunk []byte) {
			_, _ = out.Write(chunk)
			captured.write(stream, chunk)
		},
		OnExit: func(status ExitStatus) {
			c.logger.Debugf("Code: %d", status.Code)
			c.logger.Debugf("Signal: %s", status.Signal)
		},
	})
	if err != nil {
		return Outcome{}, err
	}
	c.setRunning(proc)
	defer c.setRunning(nil)

	start := c.clock.Now()
	var deadline time.Time
	if c.timeout > 0 {
		deadline = start.Add(c.timeout)
	}

	outcome := Outcome{Attempt: attempt, Command: command}
	poller := Poller{Interval: c.pollInterval, Clock: c.clock}

	if poller.Wait(proc, deadline) == TimedOut {
		// The killed exit is not authoritative; the timeout decides.
		c.kill(proc)
		c.drain(proc)

		outcome.Kind = OutcomeTimedOut
		outcome.Timeout = c.timeout
		outcome.Match, outcome.Output = captured.result()
		outcome.Duration = c.clock.Since(start)
		c.wait()
		return outcome, nil
	}

	status := proc.Wait()
	c.drain(proc)
	outcome.Match, outcome.Output = captured.result()
	outcome.Duration = c.clock.Since(start)

	if status.Code == 0 {
		outcome.Kind = OutcomeSuccess
		return outcome, nil
	}

	outcome.Kind = OutcomeExitError
	outcome.ExitCode = status.Code
	if outcome.ExitCode < 0 {
		outcome.ExitCode = 1
	}
	c.wait()
	return outcome, nil
}

// Terminate kills the process tree of the attempt currently running, if any.
// The attempt then ends like any other killed process.
func (c *Command) Terminate() error {
	c.mu.Lock()
	proc := c.running
	c.mu.Unlock()
	if proc == nil {
		return nil
	}
	return proc.Terminate()
}

func (c *Command) setRunning(proc *Process) {
	c.mu.Lock()
	c.running = proc
	c.mu.Unlock()
}

// kill terminates proc and waits, up to killWait, for it to be reaped.
func (c *Command) kill(proc *Process) {
	if err := proc.Terminate(); err != nil {
		c.logger.Warnf("Failed to kill process %d: %v", proc.Pid(), err)
	}
	if !awaitExit(c.clock, proc.Exited(), killWait) {
		c.logger.Warnf("Process %d still running %s after kill", proc.Pid(), killWait)
	}
}

// drain collects output still in flight. Descendants that keep the pipes
// open are not waited for.
func (c *Command) drain(proc *Process) {
	if !proc.WaitOutput(outputGrace) {
		c.logger.Debugf("Output of process %d still open after exit", proc.Pid())
	}
}

// awaitExit reports whether exited closed before limit passed on clock.
func awaitExit(clock quartz.Clock, exited <-chan struct{}, limit time.Duration) bool {
	select {
	case <-exited:
		return true
	default:
	}

	t := clock.NewTimer(limit, "Command", "kill")
	defer t.Stop()
	select {
	case <-exited:
		return true
	case <-t.C:
		return false
	}
}

// wait blocks for the next cooldown interval.
func (c *Command) wait() {
	d := c.cooldown.NextBackOff()
	if d == backoff.Stop {
		return
	}
	sleep(c.clock, d, "Command", "cooldown")
}

// Run is a convenience function for a single attempt with default settings.
func Run(command string) (Outcome, error) {
	return New(command).Execute(1)
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(b []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(b)
}
