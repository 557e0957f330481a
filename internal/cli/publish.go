package cli

import (
	"github.com/spf13/cobra"

	"github.com/onlook-dev/templates/internal/config"
	"github.com/onlook-dev/templates/internal/credential"
	"github.com/onlook-dev/templates/internal/logging"
	"github.com/onlook-dev/templates/internal/model"
	"github.com/onlook-dev/templates/internal/publish"
	"github.com/onlook-dev/templates/internal/template"
)

// publishUsage is printed when the template name is missing.
const publishUsage = "Usage: csb-publish publish <template-name>\nExample: csb-publish publish next15"

// publishFlags holds the flag values for the publish command.
type publishFlags struct {
	dryRun bool
}

// NewPublishCommand creates the "publish" cobra command.
func NewPublishCommand(deps Deps) *cobra.Command {
	flags := &publishFlags{}

	cmd := &cobra.Command{
		Use:   "publish <template-name>",
		Short: "Publish a single template",
		Long: `Publish one template directory as a CodeSandbox sandbox image.

The directory must be an immediate child of the template root and contain
a package.json. The build output is streamed directly to the terminal.

Examples:
  csb-publish publish next15
  csb-publish publish next15 --vm-tier Small
  csb-publish publish next15 --dry-run`,

		// The name is checked before anything else, including the credential.
		Args: requireTemplateName,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(cmd, deps, args[0], flags)
		},
	}

	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Print the build command without running it")
	addRuntimeFlags(cmd)

	return cmd
}

// requireTemplateName is a cobra.PositionalArgs that reports a missing or
// extra argument with the usage message.
func requireTemplateName(_ *cobra.Command, args []string) error {
	if len(args) != 1 || args[0] == "" {
		return model.NewCLIError(model.KindUsage, publishUsage)
	}
	return nil
}

// runPublish validates the credential and the template, then publishes it.
// Any failure, including a non-zero exit of the build command, exits 1.
func runPublish(cmd *cobra.Command, deps Deps, name string, flags *publishFlags) error {
	log := newLogger(cmd)

	cfg, root, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	key, err := credential.Validate(deps.LookupEnv, cfg.CredentialEnv)
	if err != nil {
		return err
	}

	tmpl, err := template.Check(root, name)
	if err != nil {
		return err
	}
	log.Debug("template found", "name", tmpl.Name, "package", tmpl.PackageName, "version", tmpl.Version)

	publisher, cleanup, err := newPublisher(deps, cfg, root, key, log)
	if err != nil {
		return err
	}
	defer cleanup()
	publisher.ShowPath = true
	publisher.DryRun = flags.dryRun

	outcome := publisher.PublishOne(cmd.Context(), tmpl)
	if !outcome.Succeeded() {
		return errReported(model.KindSubprocess)
	}
	if !flags.dryRun {
		log.Info("🏷️  Use the template tag provided above to create new sandboxes")
	}
	return nil
}

// newPublisher wires a Publisher for cfg. The returned cleanup releases the
// runner and must be called once publishing is done.
func newPublisher(deps Deps, cfg *config.Config, root, key string, log *logging.Logger) (*publish.Publisher, func(), error) {
	r, err := deps.NewRunner(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	log.Debug("using runtime", "runtime", cfg.Runtime, "runner", cfg.PackageRunner, "vmTier", cfg.VMTier)

	p := &publish.Publisher{
		Runner:        r,
		Args:          cfg.BuildArgs,
		CredentialEnv: cfg.CredentialEnv,
		Credential:    key,
		Dir:           root,
		Streams:       deps.Streams,
		Logger:        log,
	}
	return p, func() { closeRunner(r, log) }, nil
}
