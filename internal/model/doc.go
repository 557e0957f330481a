// Package model defines the domain types and value objects for the
// csb-publish CLI.
//
// This package contains pure data structures with no external dependencies.
// Templates and publish outcomes are transient: they are created by
// directory enumeration or a command-line argument, used for one publish
// attempt, and discarded. Nothing is persisted between invocations.
//
// The package also defines exit codes (ExitCode), the error taxonomy
// (ErrorKind), and a custom error type (CLIError) that carries both, so the
// CLI layer can translate failures into process exit codes in one place.
package model
