package shell

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/abiosoft/readline"
	"github.com/sirupsen/logrus"

	"github.com/rsh-shell/rsh/core/dispatch"
	"github.com/rsh-shell/rsh/core/history"
)

// PlainOptions configures the line-at-a-time fallback used when stdin is not
// a terminal, e.g. scripts piped into rsh.
type PlainOptions struct {
	In         io.ReadCloser
	Out        io.Writer
	Err        io.Writer
	Log        *logrus.Logger
	Dispatcher *dispatch.Dispatcher
	History    *history.Store
	Prompt     string
}

// RunPlain reads and dispatches lines without the modal editor or renderer.
// It returns on EOF or after the exit builtin.
func RunPlain(opts PlainOptions) error {
	log := opts.Log
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}

	cfg := &readline.Config{
		Prompt: opts.Prompt,
		Stdin:  readline.NewCancelableStdin(opts.In),
		Stdout: opts.Out,
		Stderr: opts.Err,
		FuncIsTerminal: func() bool {
			return false
		},
	}
	if err := cfg.Init(); err != nil {
		return err
	}
	rl, err := readline.NewEx(cfg)
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		switch {
		case err == io.EOF:
			return nil
		case err == readline.ErrInterrupt:
			continue
		case err != nil:
			return fmt.Errorf("read input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if opts.History != nil {
			if err := opts.History.Append(line, time.Now()); err != nil {
				log.WithError(err).Warn("could not record history")
			}
		}

		if _, err := opts.Dispatcher.Execute(line); err != nil {
			if errors.Is(err, dispatch.ErrExit) {
				return nil
			}
			return err
		}
	}
}
