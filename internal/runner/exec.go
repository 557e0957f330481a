package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ExecRunner runs the build command as a local child process.
//
// The child is not tied to the context: once started it runs to
// completion. An interrupt from the terminal reaches it directly through
// the process group.
type ExecRunner struct {
	// BaseEnv returns the environment the child inherits before
	// Command.Env is applied. Defaults to os.Environ.
	BaseEnv func() []string
}

// NewExecRunner creates an ExecRunner that inherits the process environment.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{BaseEnv: os.Environ}
}

// Start launches cmd. It fails if the context is already done, the argument
// vector is empty, or the program cannot be started (e.g. not on PATH).
func (r *ExecRunner) Start(ctx context.Context, cmd Command) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(cmd.Args) == 0 {
		return nil, errors.New("runner: empty command")
	}

	baseEnv := r.BaseEnv
	if baseEnv == nil {
		baseEnv = os.Environ
	}

	// #nosec G204 -- the program comes from configuration, not from the
	// template name, and arguments are passed as a vector without a shell.
	c := exec.Command(cmd.Args[0], cmd.Args[1:]...)
	c.Env = MergeEnv(baseEnv(), cmd.Env)
	c.Dir = cmd.Dir
	c.Stdin = cmd.Streams.Stdin
	c.Stdout = cmd.Streams.Stdout
	c.Stderr = cmd.Streams.Stderr

	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", strings.Join(cmd.Args, " "), err)
	}
	return &execHandle{cmd: c}, nil
}

type execHandle struct {
	cmd *exec.Cmd
}

// Wait returns the child's exit code. A child killed by a signal reports -1.
func (h *execHandle) Wait() (int, error) {
	err := h.cmd.Wait()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
