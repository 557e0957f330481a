// Package main is the entry point for the csb-publish CLI.
//
// csb-publish publishes sandbox template directories to CodeSandbox. All
// functionality lives in internal/cli; main only wires build information and
// signal handling.
//
// Build-time variables (version, commit, date) are injected via ldflags.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/onlook-dev/templates/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(Main())
}

// Main runs the CLI and returns the process exit code.
func Main() int {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	// Ctrl-C reaches a running build command directly through the process
	// group. The context only stops further templates from starting and
	// tears down docker build containers.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Only the first signal is caught. stop restores the default handling,
	// so a second Ctrl-C terminates csb-publish even while a build command
	// that ignores SIGINT keeps running.
	go func() {
		<-ctx.Done()
		stop()
	}()

	return cli.Execute(ctx, cli.NewRootCommand())
}
