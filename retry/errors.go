package retry

import (
	"errors"
	"fmt"
)

var (
	ErrFinalAttempt    = errors.New("retry: final attempt failed")
	ErrPatternMismatch = errors.New("retry: output did not match pattern")
	ErrInvalidPolicy   = errors.New("retry: unknown retry policy")
)

// FinalAttemptError wraps the failure of the last allowed attempt.
type FinalAttemptError struct {
	Err error
}

func (e *FinalAttemptError) Error() string {
	return fmt.Sprintf("Final attempt failed. %v", e.Err)
}

func (e *FinalAttemptError) Unwrap() []error { return []error{ErrFinalAttempt, e.Err} }

// PatternMismatchError is an exit failure whose output lacked the pattern
// required for a retry. Its message is the underlying failure.
type PatternMismatchError struct {
	Pattern string
	Err     error
}

func (e *PatternMismatchError) Error() string {
	return e.Err.Error()
}

func (e *PatternMismatchError) Unwrap() []error { return []error{ErrPatternMismatch, e.Err} }
