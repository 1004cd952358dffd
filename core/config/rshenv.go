package config

import (
	"os"
	"strings"

	"github.com/spf13/afero"
)

// EnvOverlay is the parsed ~/.rshenv file: one extra command lookup
// directory per line. Its presence also switches the prompt accent on.
type EnvOverlay struct {
	// Present reports whether the overlay file exists.
	Present bool

	// Paths are extra directories searched for executables.
	Paths []string
}

// LoadEnvOverlay reads the overlay file at path. A missing file yields an
// absent overlay, not an error.
func LoadEnvOverlay(fs afero.Fs, path string) (EnvOverlay, error) {
	data, err := afero.ReadFile(fs, path)
	if os.IsNotExist(err) {
		return EnvOverlay{}, nil
	}
	if err != nil {
		return EnvOverlay{}, err
	}

	out := EnvOverlay{Present: true}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out.Paths = append(out.Paths, line)
	}
	return out, nil
}
