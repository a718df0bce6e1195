package main

import (
	"errors"
	"os"
	"syscall"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

type fakeTerminator struct {
	calls int
	err   error
}

func (f *fakeTerminator) Terminate() error {
	f.calls++
	return f.err
}

func TestInterrupted(t *testing.T) {
	tests := []struct {
		name string
		sig  os.Signal
		want int
	}{
		{name: "interrupt", sig: syscall.SIGINT, want: 130},
		{name: "terminate", sig: syscall.SIGTERM, want: 143},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := test.NewNullLogger()
			term := &fakeTerminator{}

			assert.Equal(t, tt.want, interrupted(tt.sig, term, logger))
			assert.Equal(t, 1, term.calls)
		})
	}
}

func TestInterrupted_TerminateFailureIsLogged(t *testing.T) {
	logger, hook := test.NewNullLogger()
	term := &fakeTerminator{err: errors.New("no such process")}

	assert.Equal(t, 130, interrupted(syscall.SIGINT, term, logger))
	if assert.NotNil(t, hook.LastEntry()) {
		assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	}
}

func TestForwardSignals_Stop(t *testing.T) {
	logger, _ := test.NewNullLogger()
	stop := forwardSignals(&fakeTerminator{}, logger)
	assert.NotPanics(t, stop)
}
