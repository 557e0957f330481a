package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Options configures a Logger.
type Options struct {
	// Verbose enables debug output on the error stream.
	Verbose bool

	// JSON switches both streams to the JSON formatter.
	JSON bool

	// Stdout and Stderr default to the process streams when nil.
	Stdout io.Writer
	Stderr io.Writer
}

// Logger writes status lines to an output stream and diagnostics to an
// error stream.
type Logger struct {
	out *log.Logger
	err *log.Logger
}

// New creates a Logger from opts.
func New(opts Options) *Logger {
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	level := log.InfoLevel
	if opts.Verbose {
		level = log.DebugLevel
	}

	formatter := log.TextFormatter
	if opts.JSON {
		formatter = log.JSONFormatter
	}

	newLogger := func(w io.Writer) *log.Logger {
		l := log.NewWithOptions(w, log.Options{
			Level:           level,
			Formatter:       formatter,
			ReportTimestamp: false,
		})
		l.SetStyles(DefaultStyles())
		return l
	}

	return &Logger{out: newLogger(stdout), err: newLogger(stderr)}
}

// Discard returns a Logger that drops everything. Useful in tests.
func Discard() *Logger {
	return New(Options{Stdout: io.Discard, Stderr: io.Discard})
}

// DefaultStyles returns the level styles used by csb-publish: the stock
// charmbracelet styles with short, colored level labels.
func DefaultStyles() *log.Styles {
	styles := log.DefaultStyles()
	styles.Levels[log.DebugLevel] = lipgloss.NewStyle().SetString("DEBUG").Foreground(lipgloss.Color("63"))
	styles.Levels[log.InfoLevel] = lipgloss.NewStyle().SetString("INFO").Bold(true).Foreground(lipgloss.Color("86"))
	styles.Levels[log.WarnLevel] = lipgloss.NewStyle().SetString("WARN").Bold(true).Foreground(lipgloss.Color("192"))
	styles.Levels[log.ErrorLevel] = lipgloss.NewStyle().SetString("ERROR").Bold(true).Foreground(lipgloss.Color("204"))
	return styles
}

// Debug logs to the error stream when verbose output is enabled.
func (l *Logger) Debug(msg string, keyvals ...interface{}) {
	l.err.Debug(msg, keyvals...)
}

// Info logs a status line to the output stream.
func (l *Logger) Info(msg string, keyvals ...interface{}) {
	l.out.Info(msg, keyvals...)
}

// Warn logs to the error stream.
func (l *Logger) Warn(msg string, keyvals ...interface{}) {
	l.err.Warn(msg, keyvals...)
}

// Error logs to the error stream.
func (l *Logger) Error(msg string, keyvals ...interface{}) {
	l.err.Error(msg, keyvals...)
}
