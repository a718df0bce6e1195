package retry

import "github.com/sowinskl/retrycmd/syscmd"

// Result is the final state of a run.
type Result struct {
	// Attempts is the number of attempts made.
	Attempts int

	// ExitCode is 0 on success, otherwise the exit code of the last failed
	// attempt or 1 when it had none.
	ExitCode int

	// Err is nil on success.
	Err error

	State State

	// Outcome is the last attempt's outcome.
	Outcome syscmd.Outcome
}

// Succeeded reports whether an attempt exited with code 0.
func (r Result) Succeeded() bool {
	return r.State == StateSucceeded
}

// Message returns the error text, or "" on success.
func (r Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// ProcessExitCode is the status the calling process should exit with.
// With continueOnError a failed run still exits 0.
func (r Result) ProcessExitCode(continueOnError bool) int {
	if r.Succeeded() || continueOnError {
		return 0
	}
	return r.ExitCode
}
