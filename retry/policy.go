package retry

import (
	"fmt"
	"strings"

	"github.com/sowinskl/retrycmd/syscmd"
)

// Policy selects which failure kinds may be retried.
type Policy string

const (
	// RetryOnAny retries timeouts and non-zero exits.
	RetryOnAny Policy = "any"

	// RetryOnTimeout retries timeouts only.
	RetryOnTimeout Policy = "timeout"

	// RetryOnError retries non-zero exits only.
	RetryOnError Policy = "error"
)

// ParsePolicy accepts "any", "timeout" or "error". Empty means any.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return RetryOnAny, nil
	case RetryOnAny, RetryOnTimeout, RetryOnError:
		return p, nil
	default:
		return "", fmt.Errorf("%w %q (want any, timeout or error)", ErrInvalidPolicy, s)
	}
}

// Config holds the retry settings of a run.
type Config struct {
	// MaxAttempts is the upper bound on attempts, at least 1.
	MaxAttempts int

	RetryOn Policy

	// RetryOnExitCode restricts retries to this exit code when set.
	RetryOnExitCode *int

	// Pattern is the configured output pattern, used in log messages.
	Pattern string

	// WarningOnRetry logs failed attempts at warning level instead of info.
	WarningOnRetry bool

	// ContinueOnError only changes how the final failure is reported.
	ContinueOnError bool
}

// Decision is the verdict on a failed, non-final attempt.
type Decision struct {
	Retry bool

	// Reason explains a refusal.
	Reason string

	// Mismatch is set when the refusal is due to the output pattern.
	Mismatch bool
}

// Decide applies the eligibility rules in order; the first rule that
// applies refuses the retry. Attempts that were not refused are eligible.
func Decide(cfg Config, o syscmd.Outcome) Decision {
	timedOut := o.Kind == syscmd.OutcomeTimedOut
	exitErr := o.Kind == syscmd.OutcomeExitError

	switch {
	case timedOut && cfg.RetryOn == RetryOnError:
		return Decision{Reason: "timeouts are not retried with retry_on=error"}
	case cfg.RetryOnExitCode != nil && *cfg.RetryOnExitCode != o.ExitCode:
		// A timed out attempt has no exit code and never matches the filter.
		return Decision{Reason: fmt.Sprintf("exit code %d does not match retry_on_exit_code %d", o.ExitCode, *cfg.RetryOnExitCode)}
	case exitErr && cfg.RetryOn == RetryOnTimeout:
		return Decision{Reason: "exit errors are not retried with retry_on=timeout"}
	case exitErr && o.Match == syscmd.NotMatched:
		return Decision{Reason: fmt.Sprintf("output did not match %q", cfg.Pattern), Mismatch: true}
	default:
		return Decision{Retry: true}
	}
}
