package dispatch

import (
	"errors"
	"fmt"
)

// ErrExit signals that the exit builtin ran and the session should end.
var ErrExit = errors.New("exit")

// cdBuiltin changes the working directory; with no argument it goes $HOME.
func cdBuiltin(d *Dispatcher, ec execContext) (int, error) {
	dir := ""
	switch len(ec.args) {
	case 1:
		dir = d.Env.Get("HOME")
		if dir == "" {
			dir = "/"
		}
	case 2:
		dir = ec.args[1]
	default:
		fmt.Fprintf(ec.stderr, "cd: too many arguments\n")
		return 1, nil
	}

	if err := d.chdir(dir); err != nil {
		fmt.Fprintf(ec.stderr, "cd: %v\n", err)
		return 1, nil
	}
	if wd, err := d.getwd(); err == nil {
		d.Env.Set("PWD", wd)
	}
	return 0, nil
}

// exitBuiltin ends the session.
func exitBuiltin(d *Dispatcher, ec execContext) (int, error) {
	fmt.Fprintln(ec.stdout, "Bye")
	return 0, ErrExit
}

// historyBuiltin (%fl) prints recorded submissions, oldest first.
func historyBuiltin(d *Dispatcher, ec execContext) (int, error) {
	cmd := &SimpleCommand{
		Use:   "%fl [-n COUNT]",
		Short: "Print the command history.",
	}
	limit := cmd.Flags().Int('n', 0, "only print the last COUNT entries")

	return cmd.Run(ec.args, ec.stdout, ec.stderr, func() int {
		if d.History == nil {
			return 0
		}
		entries, err := d.History.Load()
		if err != nil {
			fmt.Fprintf(ec.stderr, "%%fl: %v\n", err)
			return 1
		}
		if *limit > 0 && len(entries) > *limit {
			entries = entries[len(entries)-*limit:]
		}
		for _, entry := range entries {
			fmt.Fprintf(ec.stdout, "%s %s\n", entry.Time, entry.Command)
		}
		return 0
	}), nil
}

// logoBuiltin (%logo) prints the splash art.
func logoBuiltin(d *Dispatcher, ec execContext) (int, error) {
	cmd := &SimpleCommand{
		Use:   "%logo",
		Short: "Print the rsh logo.",
	}
	return cmd.Run(ec.args, ec.stdout, ec.stderr, func() int {
		WriteLogo(ec.stdout)
		return 0
	}), nil
}

func init() {
	addBuiltin("cd", cdBuiltin)
	addBuiltin("exit", exitBuiltin)
	addBuiltin("%fl", historyBuiltin)
	addBuiltin("%logo", logoBuiltin)
}
