package cmd

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/rsh-shell/rsh/core/config"
)

var cfgPath string

func loadConfig(fs afero.Fs) (*config.Configuration, error) {
	home, _ := os.UserHomeDir()
	return config.Load(fs, config.ExpandHome(cfgPath, home))
}

// newLogger routes application logs to the app log file. The terminal
// belongs to the interactive UI, so nothing is logged there.
func newLogger(cfg *config.Configuration) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	if f, err := cfg.OpenAppLog(); err == nil {
		log.SetOutput(f)
	}
	return log
}

// rootCmd represents the base command when called without any subcommands.
// Invoking rsh bare starts an interactive session.
var rootCmd = &cobra.Command{
	Use:   "rsh",
	Short: "A modal interactive shell",
	Long:  `rsh is a small interactive shell with vi-style Normal, Input, and Visual modes.`,
	Args:  cobra.ExactArgs(0),
	RunE:  runShell,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "~/.config/rsh", "config directory path")
}
