package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/rsh-shell/rsh/core/config"
	"github.com/rsh-shell/rsh/core/history"
)

var historyLimit int

// historyCmd dumps the recorded command history, oldest first.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the recorded command history.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		fs := afero.NewOsFs()
		home, _ := os.UserHomeDir()

		cfg, err := loadConfig(fs)
		if err != nil {
			return err
		}

		store := history.NewStore(fs, config.ExpandHome(cfg.HistoryPath, home))
		entries, err := store.Load()
		if err != nil {
			return err
		}
		if historyLimit > 0 && len(entries) > historyLimit {
			entries = entries[len(entries)-historyLimit:]
		}

		for _, entry := range entries {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", entry.Time, entry.Command)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "only print the last N entries")
	rootCmd.AddCommand(historyCmd)
}
