// Package runner executes the external build command.
//
// The publisher only needs two things from a subprocess: start it with an
// argument list and environment, then wait for its exit code. Runner
// captures exactly that, so the publishing workflow can be driven by a real
// process, a docker container, or a recording fake in tests.
package runner

import (
	"context"
	"io"
	"os"
	"strings"
)

// Streams are the standard streams connected to the build command.
// A nil field leaves the corresponding stream unconnected.
type Streams struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// InheritStreams returns the parent process streams, giving the child full
// pass-through with no capture or buffering.
func InheritStreams() Streams {
	return Streams{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Command describes one invocation of the build command.
type Command struct {
	// Args is the full argument vector; Args[0] is the program.
	Args []string

	// Env holds KEY=VALUE assignments added on top of the runner's base
	// environment. Later entries win over earlier ones and over the base.
	Env []string

	// Dir is the working directory. Template paths in Args are relative to it.
	Dir string

	// Label is a short name for the command (the template name), used by
	// runners that need to name resources.
	Label string

	Streams Streams
}

// Runner starts build commands.
type Runner interface {
	Start(ctx context.Context, cmd Command) (Handle, error)
}

// Handle is a started build command.
type Handle interface {
	// Wait blocks until the command terminates and returns its exit code.
	// A non-zero exit is reported through the code, not the error; the error
	// is reserved for failures to observe the command at all.
	Wait() (int, error)
}

// MergeEnv returns base with every assignment in extra applied. Variables
// in extra replace same-named variables in base. Neither input is modified.
func MergeEnv(base, extra []string) []string {
	override := make(map[string]struct{}, len(extra))
	for _, kv := range extra {
		override[envKey(kv)] = struct{}{}
	}

	env := make([]string, 0, len(base)+len(extra))
	for _, kv := range base {
		if _, ok := override[envKey(kv)]; ok {
			continue
		}
		env = append(env, kv)
	}

	// Deduplicate extra itself, keeping the last assignment of each key.
	seen := make(map[string]int, len(extra))
	for _, kv := range extra {
		key := envKey(kv)
		if i, ok := seen[key]; ok {
			env[i] = kv
			continue
		}
		seen[key] = len(env)
		env = append(env, kv)
	}
	return env
}

func envKey(kv string) string {
	key, _, _ := strings.Cut(kv, "=")
	return key
}
