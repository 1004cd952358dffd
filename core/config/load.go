package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// Load loads the configuration from the directory. A missing config.yaml is
// not an error; defaults are used so the shell works out of the box.
func Load(fs afero.Fs, path string) (*Configuration, error) {
	// If given the path to a config.yaml file, move back up a level.
	if filepath.Base(path) == ConfigurationName {
		path = filepath.Dir(path)
	}

	out := defaultConfig()
	out.configFs = afero.NewBasePathFs(fs, path)

	configContents, err := afero.ReadFile(fs, filepath.Join(path, ConfigurationName))
	switch {
	case os.IsNotExist(err):
		return out, nil
	case err != nil:
		return nil, err
	}

	if err := yaml.UnmarshalStrict(configContents, out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Initialize writes the default configuration into the directory, creating
// it if necessary. Existing files are left alone.
func Initialize(fs afero.Fs, path string) (*Configuration, error) {
	if err := fs.MkdirAll(path, 0700); err != nil {
		return nil, err
	}

	configPath := filepath.Join(path, ConfigurationName)
	if exists, err := afero.Exists(fs, configPath); err != nil {
		return nil, err
	} else if !exists {
		if err := afero.WriteFile(fs, configPath, defaultConfigData, 0600); err != nil {
			return nil, err
		}
	}

	return Load(fs, path)
}
