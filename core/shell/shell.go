// Package shell runs the interactive session: a cooperative loop that
// renders the prompt, polls the terminal for keys, feeds them to the modal
// editor, and dispatches finalized lines.
package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/rsh-shell/rsh/core/complete"
	"github.com/rsh-shell/rsh/core/config"
	"github.com/rsh-shell/rsh/core/dispatch"
	"github.com/rsh-shell/rsh/core/editor"
	"github.com/rsh-shell/rsh/core/history"
	"github.com/rsh-shell/rsh/core/render"
	"github.com/rsh-shell/rsh/core/term"
)

// Options wires a Session together. Keys, Out, and Dispatcher are required;
// the rest default sensibly.
type Options struct {
	Config     *config.Configuration
	Log        *logrus.Logger
	FS         afero.Fs
	Keys       term.KeySource
	Out        io.Writer
	Dispatcher *dispatch.Dispatcher
	History    *history.Store
	Cache      *complete.Cache

	Username string
	Home     string

	// SuspendTerm and ResumeTerm bracket external command execution so
	// children see a cooked terminal. Either may be nil.
	SuspendTerm func() error
	ResumeTerm  func() error

	// Width reports the terminal width in columns; nil means unknown.
	Width func() int

	// Getwd is swappable for tests.
	Getwd func() (string, error)
}

// tabState tracks Tab cycling: the line as it was on the first Tab press and
// how many times Tab has been hit since.
type tabState struct {
	active bool
	stash  string
	count  int
}

// recallState tracks Up/Down history navigation, stashing the in-progress
// line so walking past the newest entry restores it.
type recallState struct {
	active bool
	idx    int
	stash  string
}

// Session is one interactive shell run.
type Session struct {
	cfg      *config.Configuration
	log      *logrus.Logger
	fs       afero.Fs
	keys     term.KeySource
	out      io.Writer
	renderer *render.Renderer
	ed       *editor.Editor
	cache    *complete.Cache
	hist     *history.Store
	disp     *dispatch.Dispatcher

	overlay  config.EnvOverlay
	username string
	home     string

	suspendTerm func() error
	resumeTerm  func() error
	width       func() int
	getwd       func() (string, error)

	pollInterval time.Duration

	// commands mirrors the history file for recall and completion, newest
	// last, including lines submitted this session.
	commands []string

	tab    tabState
	recall recallState

	// lastDirErr suppresses repeated warnings while the same directory stays
	// unreadable.
	lastDirErr string
}

func New(opts Options) (*Session, error) {
	if opts.Keys == nil || opts.Out == nil || opts.Dispatcher == nil {
		return nil, errors.New("shell: Keys, Out, and Dispatcher are required")
	}

	s := &Session{
		cfg:         opts.Config,
		log:         opts.Log,
		fs:          opts.FS,
		keys:        opts.Keys,
		out:         opts.Out,
		ed:          editor.New(),
		cache:       opts.Cache,
		hist:        opts.History,
		disp:        opts.Dispatcher,
		username:    opts.Username,
		home:        opts.Home,
		suspendTerm: opts.SuspendTerm,
		resumeTerm:  opts.ResumeTerm,
		width:       opts.Width,
		getwd:       opts.Getwd,
	}
	if s.cfg == nil {
		s.cfg = &config.Configuration{PollIntervalMS: 5}
	}
	s.renderer = render.New(opts.Out, s.cfg.PromptAccent)
	if s.log == nil {
		s.log = logrus.New()
		s.log.SetOutput(io.Discard)
	}
	if s.fs == nil {
		s.fs = afero.NewOsFs()
	}
	if s.cache == nil {
		s.cache = complete.New(s.fs, os.Getenv)
	}
	if s.getwd == nil {
		s.getwd = os.Getwd
	}

	s.pollInterval = time.Duration(s.cfg.PollIntervalMS) * time.Millisecond
	if s.pollInterval <= 0 {
		s.pollInterval = 5 * time.Millisecond
	}

	if s.hist != nil {
		commands, err := s.hist.Commands()
		if err != nil {
			s.log.WithError(err).Warn("could not read history")
		}
		s.commands = commands
	}

	if s.cfg.EnvFile != "" {
		overlay, err := config.LoadEnvOverlay(s.fs, config.ExpandHome(s.cfg.EnvFile, s.home))
		if err != nil {
			s.log.WithError(err).Warn("could not read env overlay")
		}
		s.overlay = overlay
	}

	extra := append([]string{}, s.cfg.ExtraPaths...)
	extra = append(extra, s.overlay.Paths...)
	s.cache.SetExtraPaths(extra)

	return s, nil
}

// Run drives the session until the user exits. The returned error is nil for
// a normal exit; input failures are fatal and reported.
func (s *Session) Run() error {
	// The shell itself shouldn't stop on job-control signals.
	signal.Ignore(syscall.SIGTSTP, syscall.SIGTTIN, syscall.SIGTTOU)

	s.cache.RefreshCommands()
	if wd, err := s.getwd(); err == nil {
		s.cache.Watch(wd)
	}
	defer s.cache.Close()

	for {
		wd, err := s.getwd()
		if err != nil {
			wd = "/"
		}
		s.refreshDir(wd)

		if err := s.renderer.Render(s.frame(wd)); err != nil {
			return err
		}

		ev, ok, err := s.keys.PollKey(s.pollInterval)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		action := s.ed.Update(ev)
		if action != editor.ActionComplete {
			s.tab = tabState{}
		}
		if action != editor.ActionHistoryPrev && action != editor.ActionHistoryNext {
			s.recall = recallState{}
		}

		switch action {
		case editor.ActionSubmit:
			quit, err := s.submit()
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		case editor.ActionComplete:
			s.completeTab()
		case editor.ActionHistoryPrev:
			s.recallPrev()
		case editor.ActionHistoryNext:
			s.recallNext()
		case editor.ActionCancel:
			s.crlf()
		case editor.ActionQuit:
			s.crlf()
			return nil
		}
	}
}

// refreshDir snapshots the working directory, once per loop iteration in
// every mode. Read failures are logged and the stale listing kept.
func (s *Session) refreshDir(wd string) {
	err := s.cache.Refresh(wd)
	switch {
	case err == nil:
		s.lastDirErr = ""
	case errors.Is(err, complete.ErrDirectoryRead):
		if s.lastDirErr != wd {
			s.lastDirErr = wd
			s.log.WithError(err).WithField("dir", wd).Warn("directory scan failed")
		}
	default:
		s.log.WithError(err).Warn("directory refresh failed")
	}
}

func (s *Session) frame(wd string) render.Frame {
	width := 0
	if s.width != nil {
		width = s.width()
	}
	return render.Frame{
		Username: s.username,
		Dir:      s.displayDir(wd),
		Mode:     s.ed.Mode(),
		LastExit: s.disp.LastExit(),
		Buffer:   s.ed.String(),
		Cursor:   s.ed.Cursor(),
		Ghost:    s.ghost(),
		Accent:   s.overlay.Present,
		Width:    width,
	}
}

// displayDir abbreviates the home directory to ~ for the prompt.
func (s *Session) displayDir(wd string) string {
	if s.home == "" {
		return wd
	}
	if wd == s.home {
		return "~"
	}
	if strings.HasPrefix(wd, s.home+"/") {
		return "~" + wd[len(s.home):]
	}
	return wd
}

// submit finalizes the line, records it, and dispatches it with the terminal
// restored to cooked mode. Returns quit=true after the exit builtin.
func (s *Session) submit() (quit bool, err error) {
	line := strings.TrimSpace(s.ed.Submit())
	s.crlf()

	if line == "" {
		return false, nil
	}

	if s.hist != nil {
		if err := s.hist.Append(line, time.Now()); err != nil {
			s.log.WithError(err).Warn("could not record history")
		}
	}
	s.commands = append(s.commands, line)

	if s.suspendTerm != nil {
		if err := s.suspendTerm(); err != nil {
			s.log.WithError(err).Warn("could not restore terminal")
		}
	}
	_, execErr := s.disp.Execute(line)
	if s.resumeTerm != nil {
		if err := s.resumeTerm(); err != nil {
			return false, err
		}
	}

	if errors.Is(execErr, dispatch.ErrExit) {
		return true, nil
	}
	return false, nil
}

// crlf moves to a fresh line and forces a redraw. Raw mode needs the
// explicit carriage return.
func (s *Session) crlf() {
	fmt.Fprint(s.out, "\r\n")
	s.renderer.Invalidate()
}

// completeTab cycles completion candidates. The first Tab stashes the line
// so repeated presses walk candidates for the original prefix.
func (s *Session) completeTab() {
	if !s.tab.active {
		s.tab = tabState{active: true, stash: s.ed.String()}
		s.cache.RefreshCommands()
	}
	if line, ok := s.completeLine(s.tab.stash, s.tab.count); ok {
		s.ed.SetLine(line)
	}
	s.tab.count++
}

func (s *Session) recallPrev() {
	if len(s.commands) == 0 {
		return
	}
	if !s.recall.active {
		s.recall = recallState{active: true, idx: len(s.commands), stash: s.ed.String()}
	}
	if s.recall.idx > 0 {
		s.recall.idx--
	}
	s.ed.SetLine(s.commands[s.recall.idx])
}

func (s *Session) recallNext() {
	if !s.recall.active {
		return
	}
	s.recall.idx++
	if s.recall.idx >= len(s.commands) {
		s.ed.SetLine(s.recall.stash)
		s.recall = recallState{}
		return
	}
	s.ed.SetLine(s.commands[s.recall.idx])
}

// ghost is the dimmed completion hint drawn past the buffer. Only shown in
// Input mode with the cursor at the end of a non-empty line.
func (s *Session) ghost() string {
	if s.ed.Mode() != editor.ModeInput || s.ed.Len() == 0 || s.ed.Cursor() != s.ed.Len() {
		return ""
	}
	line := s.ed.String()
	full, ok := s.completeLine(line, 0)
	if !ok || !strings.HasPrefix(full, line) || full == line {
		return ""
	}
	return full[len(line):]
}
