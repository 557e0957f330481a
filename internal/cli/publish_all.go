package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/onlook-dev/templates/internal/credential"
	"github.com/onlook-dev/templates/internal/logging"
	"github.com/onlook-dev/templates/internal/model"
	"github.com/onlook-dev/templates/internal/publish"
	"github.com/onlook-dev/templates/internal/template"
)

// publishAllFlags holds the flag values for the publish-all command.
type publishAllFlags struct {
	dryRun bool

	// strict makes any failed template fail the whole run.
	strict bool

	// failFast stops at the first failed template. Implies strict.
	failFast bool
}

// NewPublishAllCommand creates the "publish-all" cobra command.
func NewPublishAllCommand(deps Deps) *cobra.Command {
	flags := &publishAllFlags{}

	cmd := &cobra.Command{
		Use:   "publish-all",
		Short: "Publish every template in the root directory",
		Long: `Discover every template directory (immediate subdirectories with a
package.json, excluding hidden directories, scripts and node_modules) and
publish them one after another.

A failed template is reported and publishing continues with the next one.
The exit code is 0 unless --strict or --fail-fast is given.

Examples:
  csb-publish publish-all
  csb-publish publish-all --dry-run
  csb-publish publish-all --strict`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublishAll(cmd, deps, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Print the build commands without running them")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "Exit 1 if any template fails to publish")
	cmd.Flags().BoolVar(&flags.failFast, "fail-fast", false, "Stop at the first template that fails (exits 1)")
	addRuntimeFlags(cmd)

	return cmd
}

// runPublishAll discovers and publishes all templates sequentially.
func runPublishAll(cmd *cobra.Command, deps Deps, flags *publishAllFlags) error {
	log := newLogger(cmd)

	cfg, root, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	key, err := credential.Validate(deps.LookupEnv, cfg.CredentialEnv)
	if err != nil {
		return err
	}

	templates, err := template.Discover(root, template.DiscoverOptions{
		Exclude: cfg.Exclude,
		OnSkip: func(name, reason string) {
			log.Debug("skipping directory", "name", name, "reason", reason)
		},
	})
	if err != nil {
		return err
	}
	if len(templates) == 0 {
		log.Info("No templates found (directories with package.json)")
		return nil
	}

	log.Info(fmt.Sprintf("🚀 Found %d templates: %s", len(templates), strings.Join(templateNames(templates), ", ")))

	publisher, cleanup, err := newPublisher(deps, cfg, root, key, log)
	if err != nil {
		return err
	}
	defer cleanup()
	publisher.DryRun = flags.dryRun
	if flags.failFast {
		publisher.Policy = publish.StopOnError
	}

	summary := publisher.Run(cmd.Context(), templates)

	// An interrupted run is never a success, whatever the policy.
	if summary.Interrupted {
		printSummary(log, summary)
		return model.NewCLIError(model.KindRuntime, "Publishing interrupted")
	}

	log.Info("🎉 Finished publishing all templates!")
	printSummary(log, summary)

	if (flags.strict || flags.failFast) && !summary.OK() {
		return errReported(model.KindSubprocess)
	}
	return nil
}

// printSummary logs the counts of the run and names the failed and skipped
// templates.
func printSummary(log *logging.Logger, summary publish.Summary) {
	failed := summary.Failed()
	succeeded := len(summary.Outcomes) - len(failed)

	log.Info("Summary",
		"succeeded", succeeded,
		"failed", len(failed),
		"skipped", len(summary.Skipped),
	)

	if len(failed) > 0 {
		names := make([]string, 0, len(failed))
		for _, o := range failed {
			names = append(names, o.Template.Name)
		}
		log.Warn("Failed templates: " + strings.Join(names, ", "))
	}
	if len(summary.Skipped) > 0 {
		log.Warn("Skipped templates: " + strings.Join(templateNames(summary.Skipped), ", "))
	}
}

func templateNames(templates []model.Template) []string {
	names := make([]string, 0, len(templates))
	for _, t := range templates {
		names = append(names, t.Name)
	}
	return names
}
