// Package publish drives the external build command for each template.
//
// Templates are published strictly one after another: a command is
// started, its output passes straight through to the operator's terminal,
// and only after it exits does the next template start. There are no
// retries and no timeouts.
package publish

import (
	"context"
	"fmt"

	"github.com/kballard/go-shellquote"

	"github.com/onlook-dev/templates/internal/logging"
	"github.com/onlook-dev/templates/internal/model"
	"github.com/onlook-dev/templates/internal/runner"
)

// Policy decides what happens after a template fails.
type Policy int

const (
	// ContinueOnError logs the failure and moves on to the next template.
	ContinueOnError Policy = iota

	// StopOnError skips the remaining templates after the first failure.
	StopOnError
)

// ArgsFunc builds the build command for a template path ("./<name>").
type ArgsFunc func(templatePath string) ([]string, error)

// Publisher publishes templates through a Runner.
type Publisher struct {
	Runner runner.Runner

	// Args builds the argument vector for each template.
	Args ArgsFunc

	// CredentialEnv and Credential are injected into the child environment
	// as CredentialEnv=Credential. The credential is passed in explicitly
	// instead of being read from the process environment here.
	CredentialEnv string
	Credential    string

	// Dir is the template root; template paths are relative to it.
	Dir string

	// Streams are connected to every build command.
	Streams runner.Streams

	Policy Policy

	// ShowPath also logs the template path before publishing.
	ShowPath bool

	// DryRun logs the commands without starting them. Every template
	// counts as succeeded.
	DryRun bool

	Logger *logging.Logger
}

// Summary is the result of a publish run.
type Summary struct {
	Outcomes []model.PublishOutcome

	// Skipped lists templates never attempted, because of StopOnError or
	// an interrupt.
	Skipped []model.Template

	// Interrupted is set when the context was cancelled before every
	// template was attempted.
	Interrupted bool
}

// Failed returns the outcomes that did not succeed.
func (s Summary) Failed() []model.PublishOutcome {
	var failed []model.PublishOutcome
	for _, o := range s.Outcomes {
		if !o.Succeeded() {
			failed = append(failed, o)
		}
	}
	return failed
}

// OK reports whether every attempted template succeeded and none was skipped.
func (s Summary) OK() bool {
	return len(s.Failed()) == 0 && len(s.Skipped) == 0
}

// Run publishes templates in order and returns the outcome of each attempt.
// Per-template failures are recorded in the Summary, not returned as errors;
// the caller decides how they affect the exit code.
func (p *Publisher) Run(ctx context.Context, templates []model.Template) Summary {
	var summary Summary
	for i, tmpl := range templates {
		// An interrupt stops the run; the template being built when it
		// arrived has already received the signal itself.
		if ctx.Err() != nil {
			p.logger().Warn("Interrupted, not publishing remaining templates")
			summary.Skipped = append(summary.Skipped, templates[i:]...)
			summary.Interrupted = true
			break
		}

		outcome := p.PublishOne(ctx, tmpl)
		summary.Outcomes = append(summary.Outcomes, outcome)

		if !outcome.Succeeded() && p.Policy == StopOnError {
			summary.Skipped = append(summary.Skipped, templates[i+1:]...)
			break
		}
	}
	return summary
}

// PublishOne publishes a single template: start the build command, wait
// for it, and log success or failure based on its exit code.
func (p *Publisher) PublishOne(ctx context.Context, tmpl model.Template) model.PublishOutcome {
	log := p.logger()
	outcome := model.PublishOutcome{Template: tmpl, Status: model.StatusPending, ExitCode: -1}

	log.Info(fmt.Sprintf("📦 Publishing template: %s", tmpl.Name))
	if p.ShowPath {
		log.Info(fmt.Sprintf("📂 Template path: %s", tmpl.Path))
	}
	log.Debug("template root", "dir", p.Dir)

	args, err := p.Args(tmpl.Path)
	if err != nil {
		return p.fail(outcome, err)
	}

	if p.DryRun {
		log.Info("Dry run, not executing", "command", shellquote.Join(args...))
		outcome.Status = model.StatusSucceeded
		outcome.ExitCode = 0
		return outcome
	}

	if err := ctx.Err(); err != nil {
		return p.fail(outcome, err)
	}

	handle, err := p.Runner.Start(ctx, runner.Command{
		Args:    args,
		Env:     []string{p.CredentialEnv + "=" + p.Credential},
		Dir:     p.Dir,
		Label:   tmpl.Name,
		Streams: p.Streams,
	})
	if err != nil {
		return p.fail(outcome, err)
	}
	outcome.Status = model.StatusSpawned

	code, err := handle.Wait()
	outcome.ExitCode = code
	if err != nil {
		return p.fail(outcome, err)
	}
	if code != 0 {
		return p.fail(outcome, nil)
	}

	outcome.Status = model.StatusSucceeded
	log.Info(fmt.Sprintf("✅ Template '%s' published successfully!", tmpl.Name))
	return outcome
}

func (p *Publisher) fail(outcome model.PublishOutcome, err error) model.PublishOutcome {
	outcome.Status = model.StatusFailed
	outcome.Err = err

	log := p.logger()
	if err != nil {
		log.Error(fmt.Sprintf("❌ Failed to publish template '%s'", outcome.Template.Name), "err", err)
	} else {
		log.Error(fmt.Sprintf("❌ Failed to publish template '%s'", outcome.Template.Name), "exitCode", outcome.ExitCode)
	}
	return outcome
}

func (p *Publisher) logger() *logging.Logger {
	if p.Logger == nil {
		return logging.Discard()
	}
	return p.Logger
}
