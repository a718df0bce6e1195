package syscmd

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrSpawn            = errors.New("syscmd: failed to spawn process")
	ErrTimeout          = errors.New("syscmd: timeout exceeded")
	ErrExitCode         = errors.New("syscmd: non-zero exit code")
	ErrUnsupportedShell = errors.New("syscmd: unsupported shell")
	ErrHook             = errors.New("syscmd: retry hook failed")
)

// SpawnError is returned when the shell executable cannot be launched.
type SpawnError struct {
	Shell string
	Err   error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %s: %v", e.Shell, e.Err)
}

func (e *SpawnError) Unwrap() []error { return []error{ErrSpawn, e.Err} }

// TimeoutError reports an attempt that was killed because its deadline passed.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout of %s hit", e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// ExitCodeError reports an attempt whose process exited with a non-zero code.
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("process exited with error code %d", e.Code)
}

func (e *ExitCodeError) Unwrap() error { return ErrExitCode }

// UnsupportedShellError is returned when a shell is unknown or not allowed on
// the target OS.
type UnsupportedShellError struct {
	Shell string
	OS    string
}

func (e *UnsupportedShellError) Error() string {
	if e.OS != "" {
		return fmt.Sprintf("shell %s not allowed on OS %s", e.Shell, e.OS)
	}
	return fmt.Sprintf("shell %s not supported", e.Shell)
}

func (e *UnsupportedShellError) Unwrap() error { return ErrUnsupportedShell }

// HookError wraps a failure of the retry hook command.
type HookError struct {
	Command string
	Err     error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("retry command %q failed: %v", e.Command, e.Err)
}

func (e *HookError) Unwrap() []error { return []error{ErrHook, e.Err} }
