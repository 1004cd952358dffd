// Package dispatch turns submitted lines into work: it parses them with the
// sh grammar, applies redirections and environment expansion, and runs
// builtins in-process or external commands through a Runner.
package dispatch

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"mvdan.cc/sh/v3/syntax"

	"github.com/rsh-shell/rsh/core/history"
)

// Dispatcher executes finalized command lines. It owns the shell environment
// and the last exit status shown in the prompt.
type Dispatcher struct {
	Env     *Env
	History *history.Store

	fs     afero.Fs
	runner Runner
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	log    *logrus.Logger

	chdir func(string) error
	getwd func() (string, error)

	lastRet int
}

// Options configures a Dispatcher. Zero fields get working defaults.
type Options struct {
	Env     *Env
	History *history.Store
	FS      afero.Fs
	Runner  Runner
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Log     *logrus.Logger
}

func New(opts Options) *Dispatcher {
	d := &Dispatcher{
		Env:     opts.Env,
		History: opts.History,
		fs:      opts.FS,
		runner:  opts.Runner,
		stdin:   opts.Stdin,
		stdout:  opts.Stdout,
		stderr:  opts.Stderr,
		log:     opts.Log,
		chdir:   os.Chdir,
		getwd:   os.Getwd,
	}
	if d.Env == nil {
		d.Env = NewEnv()
	}
	if d.fs == nil {
		d.fs = afero.NewOsFs()
	}
	if d.runner == nil {
		d.runner = ExecRunner{}
	}
	if d.stdin == nil {
		d.stdin = strings.NewReader("")
	}
	if d.stdout == nil {
		d.stdout = io.Discard
	}
	if d.stderr == nil {
		d.stderr = io.Discard
	}
	if d.log == nil {
		d.log = logrus.New()
		d.log.SetOutput(io.Discard)
	}
	return d
}

// LastExit returns the status of the most recent execution, for the prompt.
func (d *Dispatcher) LastExit() int { return d.lastRet }

// Execute parses and runs one submitted line. The returned status is the
// last command's exit code. ErrExit is returned when the exit builtin ran;
// other errors were already reported to stderr.
func (d *Dispatcher) Execute(line string) (int, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(line), "")
	if err != nil {
		fmt.Fprintf(d.stderr, "rsh: syntax error: %v\n", err)
		d.lastRet = 2
		return d.lastRet, nil
	}

	for _, stmt := range prog.Stmts {
		ec := execContext{
			stdin:  d.stdin,
			stdout: d.stdout,
			stderr: d.stderr,
			env:    d.cmdEnv(),
		}
		if err := d.executeStatement(ec, stmt); err != nil {
			if errors.Is(err, ErrExit) {
				return d.lastRet, err
			}
			fmt.Fprintf(d.stderr, "rsh: %v\n", err)
			d.lastRet = 1
		}
	}

	d.log.WithFields(logrus.Fields{
		"command": line,
		"exit":    d.lastRet,
	}).Info("dispatched")

	return d.lastRet, nil
}

// execContext carries the streams, environment, and arguments for one
// statement. Copies are cheap, which keeps pipelines and redirects local.
type execContext struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// env holds the expansion environment including pseudo-variables like
	// $? that shouldn't be written back to the shell environment.
	env []string

	// assignments holds VAR=value prefixes for the upcoming command.
	assignments []string

	// args holds the expanded command argument list.
	args []string
}

func (d *Dispatcher) syntaxError(node syntax.Node) error {
	buf := &bytes.Buffer{}
	syntax.DebugPrint(buf, node)
	d.log.WithField("node", buf.String()).Debug("unsupported syntax")

	return fmt.Errorf("syntax error near column %d", node.Pos().Col())
}

func (d *Dispatcher) executeStatement(ec execContext, stmt *syntax.Stmt) error {
	closers, err := d.applyRedirects(&ec, stmt.Redirs)
	defer closers.Close()
	if err != nil {
		return err
	}

	switch cmd := stmt.Cmd.(type) {
	case *syntax.CallExpr:
		ec.assignments, err = d.evalAssigns(ec, cmd.Assigns)
		if err != nil {
			return err
		}
		for _, word := range cmd.Args {
			argStr, err := d.evalWord(ec, word)
			if err != nil {
				return err
			}
			ec.args = append(ec.args, argStr)
		}
		return d.executeProgramOrBuiltin(ec)

	case *syntax.BinaryCmd:
		switch cmd.Op {
		case syntax.AndStmt:
			if err := d.executeStatement(ec, cmd.X); err != nil {
				return err
			}
			if d.lastRet == 0 {
				return d.executeStatement(ec, cmd.Y)
			}
		case syntax.OrStmt:
			if err := d.executeStatement(ec, cmd.X); err != nil {
				return err
			}
			if d.lastRet != 0 {
				return d.executeStatement(ec, cmd.Y)
			}
		case syntax.Pipe:
			buf := &bytes.Buffer{}
			xEc := ec
			xEc.stdout = buf
			if err := d.executeStatement(xEc, cmd.X); err != nil {
				return err
			}

			yEc := ec
			yEc.stdin = buf
			return d.executeStatement(yEc, cmd.Y)
		default:
			return d.syntaxError(stmt)
		}

	default:
		return d.syntaxError(stmt)
	}

	return nil
}

type closerList []io.Closer

func (cl closerList) Close() error {
	var lastErr error
	for _, c := range cl {
		if err := c.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// applyRedirects rewires ec's streams for `>`, `>>`, `2>`, `2>>`, `2>&1` and
// `<`. Returned closers must be closed after the statement runs.
func (d *Dispatcher) applyRedirects(ec *execContext, redirs []*syntax.Redirect) (closerList, error) {
	var closers closerList

	for _, redirect := range redirs {
		from := ""
		if redirect.N != nil {
			from = redirect.N.Value
		}

		target, err := d.evalWord(*ec, redirect.Word)
		if err != nil {
			return closers, err
		}
		if target == "" {
			return closers, d.syntaxError(redirect)
		}

		switch redirect.Op {
		case syntax.RdrIn:
			if from != "" {
				return closers, d.syntaxError(redirect)
			}
			fd, err := d.fs.Open(target)
			if err != nil {
				return closers, err
			}
			closers = append(closers, fd)
			ec.stdin = fd

		case syntax.RdrOut, syntax.AppOut:
			fromWriter, err := d.outputStream(ec, from)
			if err != nil {
				return closers, d.syntaxError(redirect)
			}

			flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
			if redirect.Op == syntax.AppOut {
				flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
			}
			fd, err := d.fs.OpenFile(target, flags, 0644)
			if err != nil {
				return closers, err
			}
			closers = append(closers, fd)
			*fromWriter = fd

		case syntax.DplOut:
			fromWriter, err := d.outputStream(ec, from)
			if err != nil {
				return closers, d.syntaxError(redirect)
			}
			switch target {
			case "1":
				*fromWriter = ec.stdout
			case "2":
				*fromWriter = ec.stderr
			default:
				return closers, d.syntaxError(redirect)
			}

		default:
			return closers, d.syntaxError(redirect)
		}
	}

	return closers, nil
}

func (d *Dispatcher) outputStream(ec *execContext, from string) (*io.Writer, error) {
	switch from {
	case "", "1":
		return &ec.stdout, nil
	case "2":
		return &ec.stderr, nil
	}
	return nil, fmt.Errorf("bad file descriptor %q", from)
}

func (d *Dispatcher) evalAssigns(ec execContext, assignments []*syntax.Assign) ([]string, error) {
	out := NewEnv()
	tmpEnv := NewEnvFrom(ec.env)

	for _, assmt := range assignments {
		if assmt.Name == nil {
			continue
		}
		value, err := d.evalWordWith(tmpEnv, assmt.Value)
		if err != nil {
			return nil, err
		}
		tmpEnv.Set(assmt.Name.Value, value)
		out.Set(assmt.Name.Value, value)
	}

	return out.Environ(), nil
}

func (d *Dispatcher) evalWord(ec execContext, word *syntax.Word) (string, error) {
	return d.evalWordWith(NewEnvFrom(ec.env), word)
}

func (d *Dispatcher) evalWordWith(env *Env, word *syntax.Word) (string, error) {
	if word == nil {
		return "", nil
	}
	var out []string
	for _, part := range word.Parts {
		subEval, err := d.evalWordPart(env, part)
		if err != nil {
			return "", err
		}
		out = append(out, subEval)
	}
	return strings.Join(out, ""), nil
}

func (d *Dispatcher) evalWordPart(env *Env, part syntax.WordPart) (string, error) {
	switch part := part.(type) {
	case *syntax.Lit:
		return part.Value, nil

	case *syntax.SglQuoted:
		return part.Value, nil

	case *syntax.DblQuoted:
		var out []string
		for _, subPart := range part.Parts {
			subEval, err := d.evalWordPart(env, subPart)
			if err != nil {
				return "", err
			}
			out = append(out, subEval)
		}
		return strings.Join(out, ""), nil

	case *syntax.ParamExp:
		if part.Param == nil {
			return "", d.syntaxError(part)
		}
		return env.Get(part.Param.Value), nil

	default:
		return "", d.syntaxError(part)
	}
}

// cmdEnv is the expansion environment: the shell environment plus
// pseudo-variables.
func (d *Dispatcher) cmdEnv() []string {
	env := NewEnvFrom(d.Env.Environ())
	env.Set("?", fmt.Sprintf("%d", d.lastRet))
	env.Set("$", fmt.Sprintf("%d", os.Getpid()))
	return env.Environ()
}

func (d *Dispatcher) executeProgramOrBuiltin(ec execContext) error {
	if len(ec.args) == 0 {
		// A bare assignment updates the shell environment.
		for _, pair := range ec.assignments {
			split := strings.SplitN(pair, "=", 2)
			value := ""
			if len(split) > 1 {
				value = split[1]
			}
			d.Env.Set(split[0], value)
		}
		return nil
	}

	if builtin, ok := Builtins[ec.args[0]]; ok {
		ret, err := builtin(d, ec)
		d.lastRet = ret
		return err
	}

	ret, err := d.runner.Run(ec.args, append(d.Env.Environ(), ec.assignments...),
		ec.stdin, ec.stdout, ec.stderr)
	if errors.Is(err, ErrNotFound) {
		fmt.Fprintf(ec.stderr, "rsh: %s: command not found\n", ec.args[0])
		d.lastRet = ret
		return nil
	}
	if err != nil {
		fmt.Fprintf(ec.stderr, "rsh: %s: %v\n", ec.args[0], err)
		d.lastRet = ret
		return nil
	}

	d.lastRet = ret
	return nil
}
