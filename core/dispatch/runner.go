package dispatch

import (
	"errors"
	"io"
	"os/exec"
)

// Runner starts external commands. The interactive loop uses ExecRunner;
// tests substitute a recording fake.
type Runner interface {
	// Run executes argv[0] with the given streams and environment and
	// returns its exit status. A non-zero status is not an error; errors
	// mean the command could not be started.
	Run(argv []string, env []string, stdin io.Reader, stdout, stderr io.Writer) (int, error)
}

// ErrNotFound is returned by Run when the command doesn't resolve to an
// executable.
var ErrNotFound = errors.New("command not found")

// ExecRunner runs commands as real child processes.
type ExecRunner struct{}

var _ Runner = ExecRunner{}

func (ExecRunner) Run(argv []string, env []string, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return 127, ErrNotFound
	}

	cmd := exec.Command(path, argv[1:]...)
	cmd.Env = env
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err = cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		return exitErr.ExitCode(), nil
	case err != nil:
		return 126, err
	}
	return 0, nil
}
