// Package cli: builds.go implements the "csb-publish builds" commands.
//
// With the docker runtime every template is built in a labelled container
// that is removed when the build ends. A publish that is killed outright
// can leave containers behind; "builds" lists them and "builds clean"
// removes them.
package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/onlook-dev/templates/internal/docker"
	"github.com/onlook-dev/templates/internal/model"
)

// buildsCleanFlags holds the flag values for the builds clean command.
type buildsCleanFlags struct {
	// force skips the confirmation prompt.
	force bool

	// all also removes containers that are still running.
	all bool
}

// NewBuildsCommand creates the "builds" cobra command.
func NewBuildsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "builds",
		Short: "List docker build containers",
		Long: `List the build containers created by the docker runtime.

Examples:
  csb-publish builds
  csb-publish builds --json
  csb-publish builds clean --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuilds(cmd)
		},
	}
	cmd.AddCommand(newBuildsCleanCommand())
	return cmd
}

func newBuildsCleanCommand() *cobra.Command {
	flags := &buildsCleanFlags{}

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove leftover docker build containers",
		Long: `Remove build containers left behind by interrupted publishes.

Running containers belong to a publish in progress and are kept unless
--all is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuildsClean(cmd, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Remove without confirmation")
	cmd.Flags().BoolVar(&flags.all, "all", false, "Also remove running build containers")

	return cmd
}

// runBuilds connects to Docker and prints the build containers.
func runBuilds(cmd *cobra.Command) error {
	log := newLogger(cmd)

	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	builds, err := cli.ListBuilds(cmd.Context())
	if err != nil {
		return err
	}
	log.Debug("found build containers", "count", len(builds))

	printBuilds(cmd.OutOrStdout(), builds, time.Now())
	return nil
}

// runBuildsClean removes build containers after confirmation.
func runBuildsClean(cmd *cobra.Command, flags *buildsCleanFlags) error {
	log := newLogger(cmd)
	ctx := cmd.Context()

	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	builds, err := cli.ListBuilds(ctx)
	if err != nil {
		return err
	}
	targets := selectBuilds(builds, flags.all)
	if len(targets) == 0 {
		log.Info("No build containers to remove")
		return nil
	}

	if !flags.force {
		confirmed, err := promptConfirmation(cmd.InOrStdin(), cmd.OutOrStdout(), targets)
		if err != nil {
			return model.WrapCLIError(model.KindRuntime, "failed to read user input", err)
		}
		if !confirmed {
			log.Info("Cancelled")
			return nil
		}
	}

	removed := 0
	for _, b := range targets {
		log.Debug("removing build container", "name", b.Name, "template", b.Template)
		if err := cli.RemoveBuild(ctx, b.ID); err != nil {
			return err
		}
		removed++
	}
	log.Info(fmt.Sprintf("Removed %d build container(s)", removed))
	return nil
}

// selectBuilds returns the containers clean should remove: stopped ones,
// plus running ones when all is set.
func selectBuilds(builds []docker.BuildContainer, all bool) []docker.BuildContainer {
	var out []docker.BuildContainer
	for _, b := range builds {
		if b.Running() && !all {
			continue
		}
		out = append(out, b)
	}
	return out
}

// promptConfirmation lists the containers and asks for a y/N answer read
// from in. A closed input counts as "no".
func promptConfirmation(in io.Reader, out io.Writer, targets []docker.BuildContainer) (bool, error) {
	_, _ = fmt.Fprintf(out, "About to remove %d build container(s):\n", len(targets))
	for _, b := range targets {
		_, _ = fmt.Fprintf(out, "  - %s (template %s, %s)\n", b.Name, b.Template, b.State)
	}
	_, _ = fmt.Fprint(out, "\nContinue? [y/N] ")

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
		return answer == "y" || answer == "yes", nil
	}
	return false, scanner.Err()
}

// buildJSON is the JSON output structure for one build container.
type buildJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Template  string    `json:"template"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"createdAt"`
}

// printBuilds outputs the build containers in text or JSON format.
func printBuilds(w io.Writer, builds []docker.BuildContainer, now time.Time) {
	if jsonOutput {
		result := struct {
			Builds []buildJSON `json:"builds"`
		}{Builds: make([]buildJSON, 0, len(builds))}

		for _, b := range builds {
			result.Builds = append(result.Builds, buildJSON{
				ID:        b.ID,
				Name:      b.Name,
				Template:  b.Template,
				State:     b.State,
				CreatedAt: b.CreatedAt,
			})
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		_, _ = fmt.Fprintln(w, string(data))
		return
	}

	if len(builds) == 0 {
		_, _ = fmt.Fprintln(w, "No build containers found.")
		return
	}

	_, _ = fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-36s %-20s %-10s %s",
		"NAME", "TEMPLATE", "STATE", "AGE")))
	for _, b := range builds {
		_, _ = fmt.Fprintf(w, "%-36s %-20s %-10s %s\n",
			b.Name, b.Template, b.State, FormatAge(now.Sub(b.CreatedAt)))
	}
}

// FormatAge renders a duration the way `docker ps` does, coarsely:
//
//	45s → "45s", 90s → "1m", 3h → "3h", 50h → "2d"
func FormatAge(d time.Duration) string {
	switch {
	case d < 0:
		return "-"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
