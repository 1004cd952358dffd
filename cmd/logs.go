package cmd

import (
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// logsCmd prints the application log kept in the config directory.
var logsCmd = &cobra.Command{
	Use:     "logs",
	Aliases: []string{"log"},
	Short:   "Print the application log.",
	Args:    cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadConfig(afero.NewOsFs())
		if err != nil {
			return err
		}

		fd, err := cfg.ReadAppLog()
		if os.IsNotExist(err) {
			// Nothing logged yet.
			return nil
		}
		if err != nil {
			return err
		}
		defer fd.Close()

		_, err = io.Copy(cmd.OutOrStdout(), fd)
		return err
	},
}

func init() {
	rootCmd.AddCommand(logsCmd)
}
