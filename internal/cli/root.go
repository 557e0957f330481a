// Package cli implements the cobra-based CLI commands for csb-publish.
//
// Each subcommand (publish, publish-all, list, config, builds) is defined in its own
// file within this package. This file defines the root command that serves
// as the parent for all subcommands and handles global flags.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/onlook-dev/templates/internal/config"
	"github.com/onlook-dev/templates/internal/credential"
	"github.com/onlook-dev/templates/internal/logging"
	"github.com/onlook-dev/templates/internal/model"
	"github.com/onlook-dev/templates/internal/runner"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// jsonOutput switches log lines and command output to JSON.
	jsonOutput bool

	// verbose enables debug logging on stderr.
	verbose bool

	// configPath is an explicit config file. Empty means
	// <root>/.csb-publish.yaml, if it exists.
	configPath string

	// rootDir is the directory holding the templates. Empty means the
	// current working directory.
	rootDir string
)

// Version, Commit, and Date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Deps are the process-level collaborators of the commands. NewRootCommand
// uses DefaultDeps; tests substitute an environment map and a recording
// runner so that no real build command is ever spawned.
type Deps struct {
	// LookupEnv reads the credential variable.
	LookupEnv credential.LookupFunc

	// NewRunner creates the runner for the configured runtime.
	NewRunner func(cfg *config.Config, log *logging.Logger) (runner.Runner, error)

	// Streams are handed to every build command.
	Streams runner.Streams
}

// DefaultDeps returns the dependencies used by the real binary: the process
// environment, a runner picked by cfg.Runtime, and the inherited stdio.
func DefaultDeps() Deps {
	return Deps{
		LookupEnv: os.LookupEnv,
		NewRunner: newRunner,
		Streams:   runner.InheritStreams(),
	}
}

// newRunner picks the runner backend named by cfg.Runtime.
func newRunner(cfg *config.Config, log *logging.Logger) (runner.Runner, error) {
	switch cfg.Runtime {
	case config.RuntimeDocker:
		r := runner.NewDockerRunner(cfg.DockerImage)
		r.OnStaleRemoved = func(n int) {
			log.Warn("Removed leftover build containers", "count", n)
		}
		return r, nil
	case config.RuntimeExec, "":
		return runner.NewExecRunner(), nil
	default:
		return nil, model.NewCLIError(model.KindConfig, fmt.Sprintf("unknown runtime %q", cfg.Runtime))
	}
}

// NewRootCommand creates the root command with the default dependencies.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithDeps(DefaultDeps())
}

// NewRootCommandWithDeps creates and configures the root cobra command.
//
// The root command itself does not perform any action. It only provides
// help text and global flags; subcommands do the work.
func NewRootCommandWithDeps(deps Deps) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "csb-publish",
		Short: "Publish sandbox templates to CodeSandbox",
		Long: `csb-publish builds template directories (directories containing a
package.json) as CodeSandbox sandbox images using the @codesandbox/sdk
build command.

The API key is read from the CSB_API_KEY environment variable.`,

		// Errors are printed once by Execute, in text or JSON.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <dir>/"+config.FileName+")")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "C", "", "Directory containing the templates (default: current directory)")

	rootCmd.AddCommand(NewPublishCommand(deps))
	rootCmd.AddCommand(NewPublishAllCommand(deps))
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewBuildsCommand())

	return rootCmd
}

// Execute runs the root command and returns the process exit code.
// CLIError values carry their own exit code; other errors map to 1.
func Execute(ctx context.Context, rootCmd *cobra.Command) int {
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return int(model.ExitSuccess)
	}

	stderr := rootCmd.ErrOrStderr()
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		if cliErr.Message != "" {
			printError(stderr, cliErr.Kind, cliErr.Message, cliErr.Err)
		}
		return int(cliErr.Code)
	}

	printError(stderr, model.KindRuntime, err.Error(), nil)
	return int(model.ExitGeneralError)
}

// errReported is returned when the failure has already been logged, so
// Execute only sets the exit code.
func errReported(kind model.ErrorKind) error {
	return &model.CLIError{Code: kind.ExitCode(), Kind: kind}
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
//
// Text output keeps the messages the publishing scripts always printed:
// usage errors verbatim, everything else behind a "❌" marker. The
// underlying error is only shown with --verbose.
func printError(w io.Writer, kind model.ErrorKind, message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"kind":    kind.String(),
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		// stdout is reserved for command output, so errors go to stderr
		// even in JSON mode.
		data, _ := json.MarshalIndent(errObj, "", "  ")
		_, _ = fmt.Fprintln(w, string(data))
		return
	}

	if kind != model.KindUsage {
		message = "❌ " + message
	}
	_, _ = fmt.Fprintln(w, strings.TrimRight(message, "\n"))
	if underlying != nil && verbose {
		_, _ = fmt.Fprintf(w, "   %v\n", underlying)
	}
}

// newLogger builds the logger for a command from the global flags.
func newLogger(cmd *cobra.Command) *logging.Logger {
	return logging.New(logging.Options{
		Verbose: verbose,
		JSON:    jsonOutput,
		Stdout:  cmd.OutOrStdout(),
		Stderr:  cmd.ErrOrStderr(),
	})
}

// resolveRoot returns the template root directory.
func resolveRoot() (string, error) {
	if rootDir != "" {
		return rootDir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", model.WrapCLIError(model.KindRuntime, "cannot determine current directory", err)
	}
	return wd, nil
}

// loadConfig resolves the root and loads the configuration, applying any
// runtime flags set on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	root, err := resolveRoot()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(config.LoadOptions{
		Root:  root,
		Path:  configPath,
		Flags: cmd.Flags(),
	})
	if err != nil {
		return nil, "", err
	}
	return cfg, root, nil
}

// addRuntimeFlags registers the flags that override build settings.
// Unset flags leave the config file and environment values in place.
func addRuntimeFlags(cmd *cobra.Command) {
	cmd.Flags().String("vm-tier", "", "VM tier passed to the build command (default: Nano)")
	cmd.Flags().String("runner", "", "Package runner used to invoke the SDK (default: bunx)")
	cmd.Flags().String("runtime", "", "Where to run the build: exec or docker (default: exec)")
	cmd.Flags().String("image", "", "Container image for the docker runtime (default: "+runner.DefaultImage+")")
}

// closeRunner releases runner resources when the backend holds any.
func closeRunner(r runner.Runner, log *logging.Logger) {
	if c, ok := r.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Debug("failed to close runner", "err", err)
		}
	}
}
