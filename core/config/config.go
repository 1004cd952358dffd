// Package config holds the on-disk settings for the shell: the config.yaml
// under the configuration directory plus the legacy ~/.rshenv overlay.
package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"
	AppLogName        = "app.log"

	HistoryFileName = ".rsh_history"
	EnvFileName     = ".rshenv"
)

type Configuration struct {
	configFs afero.Fs

	// HistoryPath is where submitted commands are recorded. A leading ~
	// expands to the user's home directory.
	HistoryPath string `json:"history_path" validate:"required"`

	// EnvFile is the per-user overlay file with extra lookup paths and the
	// prompt accent color.
	EnvFile string `json:"env_file" validate:"required"`

	// PollIntervalMS is how long one input poll may block, in milliseconds.
	PollIntervalMS int `json:"poll_interval_ms" validate:"gte=1,lte=1000"`

	// PromptAccent colors the username segment of the prompt.
	PromptAccent string `json:"prompt_accent" validate:"oneof=black red green yellow blue magenta cyan white"`

	// ShowLogo prints the splash art when an interactive session starts.
	ShowLogo bool `json:"show_logo"`

	// ExtraPaths are searched for executables in addition to $PATH.
	ExtraPaths []string `json:"extra_paths"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

func (c *Configuration) fs() afero.Fs {
	if c.configFs == nil {
		c.configFs = afero.NewOsFs()
	}
	return c.configFs
}

// OpenAppLog opens the application log in an append only state.
func (c *Configuration) OpenAppLog() (afero.File, error) {
	return c.fs().OpenFile(AppLogName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

func (c *Configuration) ReadAppLog() (afero.File, error) {
	return c.fs().OpenFile(AppLogName, os.O_RDONLY, 0600)
}

// ExpandHome resolves a leading ~ in path against the given home directory.
func ExpandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
