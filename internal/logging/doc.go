// Package logging provides the leveled logger used by every csb-publish
// command.
//
// Status lines meant for the operator (template found, publish started,
// publish succeeded) go to stdout; warnings, errors, and debug output go to
// stderr so they never interleave with machine-readable stdout under --json.
// Both streams are backed by github.com/charmbracelet/log.
package logging
