package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/onlook-dev/templates/internal/config"
)

// NewConfigCommand creates the "config" command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the csb-publish configuration file",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newConfigInitCommand())
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Long: `Write the built-in defaults to ` + config.FileName + ` in the template root,
or to the path given with --config. An existing file is never overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(cmd)

			path := configPath
			if path == "" {
				root, err := resolveRoot()
				if err != nil {
					return err
				}
				path = filepath.Join(root, config.FileName)
			}

			if err := config.WriteDefault(path); err != nil {
				return err
			}
			log.Info("Wrote " + path)
			return nil
		},
	}
}
