package model

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MarkerFile is the file whose presence turns a directory into a template.
const MarkerFile = "package.json"

// Template is a publishable project directory.
//
// Identity is the directory name. A Template is created either by
// enumerating the root directory or from the user-supplied argument of the
// single-publish command, and is discarded once its publish attempt ends.
type Template struct {
	// Name is the directory name, e.g. "next15".
	Name string `json:"name"`

	// Path is the path handed to the build command, always "./<Name>".
	Path string `json:"path"`

	// PackageName is the "name" field of package.json, when it could be read.
	// Only used for display; an empty value does not affect publishing.
	PackageName string `json:"packageName,omitempty"`

	// Version is the "version" field of package.json, when present.
	Version string `json:"version,omitempty"`
}

// NewTemplate creates a Template for the given directory name with the
// relative build path derived from it.
func NewTemplate(name string) Template {
	return Template{Name: name, Path: "./" + name}
}

// ValidateTemplateName checks that a user-supplied template name refers to
// an immediate child directory of the root. Nested paths and parent
// references are rejected so that "./<name>" always names a direct child.
func ValidateTemplateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("template name must not be empty")
	}
	if name == "." || name == ".." {
		return fmt.Errorf("invalid template name %q", name)
	}
	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("invalid template name %q: must be a directory name, not a path", name)
	}
	return nil
}

// PublishStatus represents where a single template is in its publish
// attempt. The transitions are:
//
//	pending → spawned → succeeded
//	                  → failed
//
// Both succeeded and failed are terminal; there are no retries.
type PublishStatus string

const (
	// StatusPending means the template has not been handed to a runner yet.
	StatusPending PublishStatus = "pending"

	// StatusSpawned means the build command is running.
	StatusSpawned PublishStatus = "spawned"

	// StatusSucceeded means the build command exited with code 0.
	StatusSucceeded PublishStatus = "succeeded"

	// StatusFailed means the build command exited non-zero or could not
	// be started at all.
	StatusFailed PublishStatus = "failed"
)

// String returns the string representation of PublishStatus.
func (s PublishStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible.
func (s PublishStatus) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// CanTransitionTo reports whether moving from s to next follows the
// publish state machine.
func (s PublishStatus) CanTransitionTo(next PublishStatus) bool {
	switch s {
	case StatusPending:
		// A runner that fails to start moves a template straight to failed.
		return next == StatusSpawned || next == StatusFailed
	case StatusSpawned:
		return next.IsTerminal()
	default:
		return false
	}
}

// PublishOutcome is the result of one publish attempt. It exists only to
// build the final summary and is never persisted.
type PublishOutcome struct {
	Template Template      `json:"template"`
	Status   PublishStatus `json:"status"`

	// ExitCode is the build command's exit code. It is -1 when the command
	// never started.
	ExitCode int `json:"exitCode"`

	// Err holds a start/wait error from the runner, if any.
	Err error `json:"-"`
}

// Succeeded reports whether the publish attempt finished successfully.
func (o PublishOutcome) Succeeded() bool {
	return o.Status == StatusSucceeded
}

// ExitCode defines the CLI process exit codes.
type ExitCode int

const (
	// ExitSuccess indicates success, including the "nothing to publish" case.
	ExitSuccess ExitCode = 0

	// ExitGeneralError is used for every failure class: missing credential,
	// usage errors, missing templates and failed builds.
	ExitGeneralError ExitCode = 1
)

// ErrorKind classifies failures. All kinds currently map to exit code 1;
// the kind exists so callers and tests can tell failures apart without
// parsing messages.
type ErrorKind string

const (
	// KindConfig is a configuration error such as a missing credential.
	KindConfig ErrorKind = "config"

	// KindUsage is a command-line usage error such as a missing argument.
	KindUsage ErrorKind = "usage"

	// KindDiscovery means a named template is missing or has no package.json.
	KindDiscovery ErrorKind = "discovery"

	// KindSubprocess means the external build command failed.
	KindSubprocess ErrorKind = "subprocess"

	// KindRuntime covers everything else (I/O errors, docker errors, ...).
	KindRuntime ErrorKind = "runtime"
)

// String returns the string representation of ErrorKind.
func (k ErrorKind) String() string {
	return string(k)
}

// ExitCode returns the process exit code used for this kind of error.
func (k ErrorKind) ExitCode() ExitCode {
	return ExitGeneralError
}

// CLIError is a custom error type that carries an exit code and a kind.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Kind classifies the failure.
	Kind ErrorKind

	// Message is the human-readable error description. It may span
	// several lines (the credential guidance does).
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError of the given kind.
func NewCLIError(kind ErrorKind, message string) *CLIError {
	return &CLIError{Code: kind.ExitCode(), Kind: kind, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(kind ErrorKind, message string, err error) *CLIError {
	return &CLIError{Code: kind.ExitCode(), Kind: kind, Message: message, Err: err}
}
