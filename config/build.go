package config

import (
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/sowinskl/retrycmd/retry"
	"github.com/sowinskl/retrycmd/syscmd"
)

// uncappedWait stands in for "no maximum" on an exponential cooldown.
const uncappedWait = 24 * time.Hour

// Run is everything one retried command needs, built from a Config.
type Run struct {
	Shell   syscmd.Shell
	Command *syscmd.Command
	Retry   retry.Config
	Hook    syscmd.Hook
}

// Build validates the configuration and resolves it for goos. Errors here
// happen before any attempt starts.
func (c *Config) Build(goos string) (*Run, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	sh, err := syscmd.ResolveShell(c.Shell, goos)
	if err != nil {
		return nil, err
	}
	pattern, err := c.pattern()
	if err != nil {
		return nil, err
	}
	policy, err := retry.ParsePolicy(c.RetryOn)
	if err != nil {
		return nil, err
	}

	cmd := syscmd.New(c.Command).
		Shell(sh).
		Timeout(c.Timeout()).
		PollInterval(c.PollInterval()).
		Cooldown(c.Cooldown()).
		RetryCommand(c.NewCommandOnRetry).
		Pattern(pattern)

	rc := retry.Config{
		MaxAttempts:     c.MaxAttempts,
		RetryOn:         policy,
		Pattern:         c.RetryOnPattern,
		WarningOnRetry:  c.WarningOnRetry,
		ContinueOnError: c.ContinueOnError,
	}
	if c.RetryOnExitCode != 0 {
		code := c.RetryOnExitCode
		rc.RetryOnExitCode = &code
	}

	return &Run{
		Shell:   sh,
		Command: cmd,
		Retry:   rc,
		Hook:    syscmd.Hook{Command: c.OnRetryCommand, Shell: sh},
	}, nil
}

// Cooldown returns the wait schedule after failed attempts: constant unless
// a multiplier above 1 is configured.
func (c *Config) Cooldown() backoff.BackOff {
	if c.RetryWaitMultiplier <= 1 {
		return backoff.NewConstantBackOff(c.RetryWait())
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.RetryWait()
	b.Multiplier = c.RetryWaitMultiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.MaxInterval = uncappedWait
	if limit := c.RetryWaitMax(); limit > 0 {
		b.MaxInterval = limit
	}
	b.Reset()
	return b
}
