package dispatch

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// Env is the shell's environment variable table. The interactive loop owns
// it exclusively, so there is no locking.
type Env struct {
	vars map[string]string
}

// NewEnv returns an empty environment.
func NewEnv() *Env {
	return &Env{vars: make(map[string]string)}
}

// NewEnvFrom seeds an environment from "KEY=value" pairs, e.g. os.Environ().
func NewEnvFrom(environ []string) *Env {
	env := NewEnv()
	for _, pair := range environ {
		split := strings.SplitN(pair, "=", 2)
		key, value := split[0], ""
		if len(split) > 1 {
			value = split[1]
		}
		env.Set(key, value)
	}
	return env
}

func (e *Env) Set(key, value string) {
	e.vars[key] = value
}

func (e *Env) Get(key string) string {
	return e.vars[key]
}

func (e *Env) Unset(key string) {
	delete(e.vars, key)
}

// Expand substitutes $VAR and ${VAR} references.
func (e *Env) Expand(s string) string {
	return os.Expand(s, e.Get)
}

// Environ returns "KEY=value" pairs sorted by key, suitable for exec.
func (e *Env) Environ() []string {
	out := make([]string, 0, len(e.vars))
	for k, v := range e.vars {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(out)
	return out
}
