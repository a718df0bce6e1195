package rabbitmq

import "errors"

var (
	ErrNotConnected = errors.New("rabbitmq: not connected")
	ErrShutdown     = errors.New("rabbitmq: client closed")
	ErrNoRoute      = errors.New("rabbitmq: exchange or routing key required")
)

// EncodeError is returned when a payload cannot be serialized.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return "rabbitmq: encode payload: " + e.Err.Error()
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// permanent reports whether retrying a publish that failed with err is
// pointless.
func permanent(err error) bool {
	var encErr *EncodeError
	return errors.Is(err, ErrShutdown) || errors.Is(err, ErrNoRoute) || errors.As(err, &encErr)
}
