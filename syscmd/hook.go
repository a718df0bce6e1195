package syscmd

import (
	"io"
	"os"
)

// Hook is a side-effect command run between a failed attempt and the next
// one. It runs to completion with no timeout.
type Hook struct {
	Command string
	Shell   Shell

	// Stdout and Stderr default to the parent's streams.
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes the hook. An empty command does nothing. Failures are
// returned as *HookError.
func (h Hook) Run() error {
	if h.Command == "" {
		return nil
	}

	cmd := h.Shell.Command(h.Command)
	cmd.Stdin = os.Stdin
	cmd.Stdout = h.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = h.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Run(); err != nil {
		return &HookError{Command: h.Command, Err: err}
	}
	return nil
}
