package retry

// State is where a run is in its lifecycle.
type State int

const (
	// StateCreated is the state before the first attempt.
	StateCreated State = iota

	// StateRunning indicates attempts are in progress.
	StateRunning

	// StateSucceeded indicates an attempt exited with code 0.
	StateSucceeded

	// StateFailedFinal indicates the last allowed attempt failed.
	StateFailedFinal

	// StateAborted indicates a failure that was not eligible for retry,
	// or a command that could not be spawned.
	StateAborted
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailedFinal:
		return "failed_final"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// IsTerminal returns true once no further attempts will be made.
func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailedFinal || s == StateAborted
}
