// Package syscmd runs a single attempt of a shell command with live output
// forwarding, deadline enforcement and output pattern matching.
//
// One attempt spawns the command through a Shell, polls the process for
// completion until an optional deadline passes, kills the whole process tree
// on timeout and classifies what happened as an Outcome.
//
// Basic usage:
//
//	outcome, err := syscmd.Run("echo hello")
//
// Advanced usage with configuration:
//
//	exec := syscmd.New("make test").
//		Timeout(10 * time.Minute).
//		PollInterval(time.Second).
//		RetryWait(5 * time.Second).
//		RetryCommand("make clean test")
//
//	outcome, err := exec.Execute(1)
//
// A non-nil error is only returned when the process could not be started at
// all; timeouts and non-zero exits are reported through the Outcome.
package syscmd
