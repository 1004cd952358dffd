package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/rsh-shell/rsh/core/config"
)

// initCmd writes the default configuration.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to the config directory.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		fs := afero.NewOsFs()
		home, _ := os.UserHomeDir()
		path := config.ExpandHome(cfgPath, home)

		if _, err := config.Initialize(fs, path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s/%s\n", path, config.ConfigurationName)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
