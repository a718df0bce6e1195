package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
)

// terminator stops whatever attempt is running.
type terminator interface {
	Terminate() error
}

// forwardSignals kills the running attempt when retrycmd is interrupted.
// The child runs in its own process group, so a terminal Ctrl-C never
// reaches it directly. The returned func stops forwarding.
func forwardSignals(t terminator, logger logrus.FieldLogger) func() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigs:
			os.Exit(interrupted(sig, t, logger))
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// interrupted kills the attempt and returns the shell-style exit code for sig.
func interrupted(sig os.Signal, t terminator, logger logrus.FieldLogger) int {
	logger.Warnf("Received %s, stopping the running attempt", sig)
	if err := t.Terminate(); err != nil {
		logger.Errorf("Failed to stop the running attempt: %v", err)
	}
	if s, ok := sig.(syscall.Signal); ok {
		return 128 + int(s)
	}
	return 1
}
