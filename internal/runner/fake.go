package runner

import (
	"context"
	"sync"
)

// Recorder is an in-memory Runner for tests. It records every command and
// answers with scripted exit codes instead of spawning anything.
type Recorder struct {
	mu    sync.Mutex
	calls []Command

	// ExitCodes maps Command.Label to the exit code Wait returns.
	// Labels without an entry exit with DefaultExitCode.
	ExitCodes map[string]int

	// DefaultExitCode is returned for unlisted labels.
	DefaultExitCode int

	// StartErr, if set, makes every Start fail after recording the call.
	StartErr error
}

// NewRecorder creates a Recorder where every command succeeds.
func NewRecorder() *Recorder {
	return &Recorder{ExitCodes: map[string]int{}}
}

// Start records cmd and returns a handle with the scripted exit code.
func (r *Recorder) Start(_ context.Context, cmd Command) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, cmd)
	if r.StartErr != nil {
		return nil, r.StartErr
	}

	code, ok := r.ExitCodes[cmd.Label]
	if !ok {
		code = r.DefaultExitCode
	}
	return fixedHandle(code), nil
}

// Calls returns a copy of the recorded commands in start order.
func (r *Recorder) Calls() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.calls))
	copy(out, r.calls)
	return out
}

// SpawnCount returns how many commands were started.
func (r *Recorder) SpawnCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type fixedHandle int

func (h fixedHandle) Wait() (int, error) {
	return int(h), nil
}
