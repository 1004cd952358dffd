package dispatch

import (
	"fmt"
	"io"

	getopt "github.com/pborman/getopt/v2"
)

// BuiltinFunc is a command executed inside the shell process.
type BuiltinFunc func(d *Dispatcher, ec execContext) (int, error)

// Builtins maps command names to their in-process implementations.
var Builtins = make(map[string]BuiltinFunc)

func addBuiltin(name string, fn BuiltinFunc) {
	if _, ok := Builtins[name]; ok {
		panic(fmt.Sprintf("duplicate builtin %q", name))
	}
	Builtins[name] = fn
}

// SimpleCommand handles flag parsing and help output for builtins.
type SimpleCommand struct {
	// Use holds a one line usage string.
	Use string
	// Short holds a one line description of the command.
	Short string

	flags *getopt.Set
}

// Flags gets the command's flag set.
func (s *SimpleCommand) Flags() *getopt.Set {
	if s.flags == nil {
		s.flags = getopt.New()
	}
	return s.flags
}

// PrintHelp writes help for the command to the given writer.
func (s *SimpleCommand) PrintHelp(w io.Writer) {
	fmt.Fprint(w, "usage: ")
	fmt.Fprintln(w, s.Use)
	fmt.Fprintln(w, s.Short)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	s.Flags().PrintOptions(w)
}

// Run parses args and calls callback on success.
func (s *SimpleCommand) Run(args []string, stdout, stderr io.Writer, callback func() int) int {
	opts := s.Flags()
	showHelp := opts.BoolLong("help", 'h', "show this help and exit")

	if err := opts.Getopt(args, nil); err != nil {
		fmt.Fprintf(stderr, "error: %s\n\n", err)
		s.PrintHelp(stdout)
		return 1
	}

	if *showHelp {
		s.PrintHelp(stdout)
		return 0
	}

	return callback()
}
