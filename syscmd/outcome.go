package syscmd

import "time"

// OutcomeKind tags how an attempt ended.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota + 1
	OutcomeExitError
	OutcomeTimedOut
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeExitError:
		return "exit_error"
	case OutcomeTimedOut:
		return "timeout"
	default:
		return "unknown"
	}
}

// Outcome is the result of exactly one attempt.
type Outcome struct {
	Attempt int
	Kind    OutcomeKind
	Command string

	// ExitCode is set for OutcomeExitError only. A timed out attempt
	// forwards no exit code.
	ExitCode int

	// Timeout is the deadline that was exceeded, for OutcomeTimedOut.
	Timeout time.Duration

	// Match and Output are only populated when a pattern is configured.
	Match  MatchResult
	Output []byte

	Duration time.Duration
}

// Succeeded reports whether the attempt exited with code 0.
func (o Outcome) Succeeded() bool {
	return o.Kind == OutcomeSuccess
}

// Err returns the failure as an error, or nil on success.
func (o Outcome) Err() error {
	switch o.Kind {
	case OutcomeExitError:
		return &ExitCodeError{Code: o.ExitCode}
	case OutcomeTimedOut:
		return &TimeoutError{Timeout: o.Timeout}
	default:
		return nil
	}
}
