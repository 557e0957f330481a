// Package cli: list.go implements the "csb-publish list" command.
//
// The list command shows the templates publish-all would publish, with the
// package name and version read from each package.json, as a text table or
// a JSON array depending on the --json flag. It needs no credential.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/onlook-dev/templates/internal/model"
	"github.com/onlook-dev/templates/internal/template"
)

// headerStyle renders the table header. lipgloss drops the styling when
// the output is not a terminal.
var headerStyle = lipgloss.NewStyle().Bold(true)

// NewListCommand creates the "list" cobra command.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List publishable templates",
		Long: `List the template directories that publish-all would publish.

Examples:
  csb-publish list
  csb-publish list --json
  csb-publish list --dir ./templates`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd)
		},
	}
}

// runList discovers templates and prints them.
func runList(cmd *cobra.Command) error {
	log := newLogger(cmd)

	cfg, root, err := loadConfig(cmd)
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

	printListResult(cmd.OutOrStdout(), templates)
	return nil
}

// printListResult outputs the templates in text or JSON format,
// depending on the global --json flag.
func printListResult(w io.Writer, templates []model.Template) {
	if jsonOutput {
		printListResultJSON(w, templates)
	} else {
		printListResultText(w, templates)
	}
}

// printListResultJSON outputs the templates as {"templates": [...]}.
func printListResultJSON(w io.Writer, templates []model.Template) {
	type resultJSON struct {
		Templates []model.Template `json:"templates"`
	}

	// An empty slice keeps the output "[]" instead of "null".
	result := resultJSON{Templates: make([]model.Template, 0, len(templates))}
	result.Templates = append(result.Templates, templates...)

	data, _ := json.MarshalIndent(result, "", "  ")
	_, _ = fmt.Fprintln(w, string(data))
}

// printListResultText outputs the templates as an aligned table:
//
//	NAME        PATH          PACKAGE       VERSION
//	next15      ./next15      next15-app    0.1.0
func printListResultText(w io.Writer, templates []model.Template) {
	if len(templates) == 0 {
		_, _ = fmt.Fprintln(w, "No templates found (directories with package.json)")
		return
	}

	_, _ = fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-20s %-24s %-24s %s",
		"NAME", "PATH", "PACKAGE", "VERSION")))

	for _, t := range templates {
		_, _ = fmt.Fprintf(w, "%-20s %-24s %-24s %s\n",
			t.Name,
			t.Path,
			orDash(t.PackageName),
			orDash(t.Version),
		)
	}
}

// orDash returns "-" for empty table cells.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
