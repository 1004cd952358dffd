package cmd

import (
	"os"
	"os/user"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/rsh-shell/rsh/core/complete"
	"github.com/rsh-shell/rsh/core/config"
	"github.com/rsh-shell/rsh/core/dispatch"
	"github.com/rsh-shell/rsh/core/history"
	"github.com/rsh-shell/rsh/core/shell"
	"github.com/rsh-shell/rsh/core/term"
)

func runShell(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	fs := afero.NewOsFs()
	home, _ := os.UserHomeDir()

	cfg, err := loadConfig(fs)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	hist := history.NewStore(fs, config.ExpandHome(cfg.HistoryPath, home))

	disp := dispatch.New(dispatch.Options{
		Env:     dispatch.NewEnvFrom(os.Environ()),
		History: hist,
		FS:      fs,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Log:     log,
	})

	if !term.IsTerminal(os.Stdin) {
		return shell.RunPlain(shell.PlainOptions{
			In:         os.Stdin,
			Out:        os.Stdout,
			Err:        os.Stderr,
			Log:        log,
			Dispatcher: disp,
			History:    hist,
			Prompt:     "> ",
		})
	}

	// Print the splash before raw mode so plain newlines render correctly.
	if cfg.ShowLogo {
		dispatch.WriteLogo(os.Stdout)
	}

	t, err := term.Open(os.Stdin)
	if err != nil {
		return err
	}
	defer t.Restore()

	session, err := shell.New(shell.Options{
		Config:      cfg,
		Log:         log,
		FS:          fs,
		Keys:        t,
		Out:         os.Stdout,
		Dispatcher:  disp,
		History:     hist,
		Cache:       complete.New(fs, os.Getenv),
		Username:    currentUsername(),
		Home:        home,
		SuspendTerm: t.Restore,
		ResumeTerm:  t.Resume,
		Width:       t.Width,
	})
	if err != nil {
		return err
	}
	return session.Run()
}

func currentUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}
