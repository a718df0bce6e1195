package syscmd

import (
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Stream identifies one of the child's output streams.
type Stream int

const (
	Stdout Stream = iota + 1
	Stderr
)

// String returns "stdout" or "stderr".
func (s Stream) String() string {
	switch s {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return "unknown"
	}
}

// readSize is the largest chunk handed to OnOutput.
const readSize = 32 * 1024

// ExitStatus is what the OS reported when the child terminated.
type ExitStatus struct {
	// Code is the exit code, 128+N for signal N, or -1 if unknown.
	Code int

	// Signal names the terminating signal, empty for a normal exit.
	Signal string

	// Killed is set when the exit followed a call to Terminate.
	Killed bool
}

// Handlers receive process events. Both are optional.
//
// OnOutput may be called concurrently for stdout and stderr and must not
// retain chunk. It keeps being called after exit for as long as a
// descendant still writes to the inherited pipes. OnExit fires exactly once,
// as soon as the child is reaped and before the process reports Done.
type Handlers struct {
	OnOutput func(stream Stream, chunk []byte)
	OnExit   func(status ExitStatus)
}

// Process is a handle to a spawned shell command.
type Process struct {
	proc     *os.Process
	handlers Handlers

	exited  chan struct{}
	drained chan struct{}
	done    atomic.Bool

	mu     sync.Mutex
	status ExitStatus

	killed   atomic.Bool
	killOnce sync.Once
	killErr  error
}

// Spawn starts command through sh. It fails with a *SpawnError if the shell
// cannot be launched.
func Spawn(command string, sh Shell, h Handlers) (*Process, error) {
	spawnErr := func(err error) error {
		return &SpawnError{Shell: sh.Executable, Err: err}
	}

	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, spawnErr(err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		outR.Close()
		outW.Close()
		return nil, spawnErr(err)
	}

	cmd := sh.Command(command)
	cmd.Stdout = outW
	cmd.Stderr = errW
	setProcAttr(cmd)

	err = cmd.Start()
	// The child owns its copies of the write ends now. Ours must go, or the
	// readers never see EOF.
	outW.Close()
	errW.Close()
	if err != nil {
		outR.Close()
		errR.Close()
		return nil, spawnErr(err)
	}

	p := &Process{
		proc:     cmd.Process,
		handlers: h,
		exited:   make(chan struct{}),
		drained:  make(chan struct{}),
	}

	var readers sync.WaitGroup
	readers.Add(2)
	go p.read(&readers, Stdout, outR)
	go p.read(&readers, Stderr, errR)
	go func() {
		readers.Wait()
		close(p.drained)
	}()

	go p.wait()
	return p, nil
}

// wait reaps the child. It does not wait for the output pipes: a background
// descendant may hold them open long after the shell itself exited.
func (p *Process) wait() {
	state, _ := p.proc.Wait()

	code, signal := exitStatus(state)
	status := ExitStatus{
		Code:   code,
		Signal: signal,
		Killed: p.killed.Load(),
	}

	p.mu.Lock()
	p.status = status
	p.mu.Unlock()

	if p.handlers.OnExit != nil {
		p.handlers.OnExit(status)
	}

	p.done.Store(true)
	close(p.exited)
}

func (p *Process) read(wg *sync.WaitGroup, stream Stream, r *os.File) {
	defer wg.Done()
	defer r.Close()

	buf := make([]byte, readSize)
	for {
		n, err := r.Read(buf)
		if n > 0 && p.handlers.OnOutput != nil {
			p.handlers.OnOutput(stream, buf[:n])
		}
		if err != nil {
			return
		}
	}
}

// Pid returns the OS process id.
func (p *Process) Pid() int {
	return p.proc.Pid
}

// Done reports whether the process has exited.
func (p *Process) Done() bool {
	return p.done.Load()
}

// Exited is closed once Done becomes true.
func (p *Process) Exited() <-chan struct{} {
	return p.exited
}

// Wait blocks until the process exited and returns its status.
func (p *Process) Wait() ExitStatus {
	<-p.exited
	return p.Status()
}

// Status returns the exit status, or the zero value while still running.
func (p *Process) Status() ExitStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Terminate force-kills the process and its descendants. It is a no-op once
// the process has exited and only ever signals once.
func (p *Process) Terminate() error {
	if p.done.Load() {
		return nil
	}
	p.killOnce.Do(func() {
		p.killed.Store(true)
		p.killErr = killTree(p.proc)
	})
	return p.killErr
}

// WaitOutput waits up to limit for both output pipes to reach EOF and
// reports whether they did.
func (p *Process) WaitOutput(limit time.Duration) bool {
	select {
	case <-p.drained:
		return true
	default:
	}

	t := time.NewTimer(limit)
	defer t.Stop()
	select {
	case <-p.drained:
		return true
	case <-t.C:
		return false
	}
}
