package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemFs(t *testing.T) afero.Fs {
	t.Helper()
	return afero.NewMemMapFs()
}

func writeFile(t *testing.T, fs afero.Fs, path, contents string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(contents), 0600))
}

func TestLoadMissingConfigUsesDefaults(t *testing.T) {
	cfg, err := Load(newMemFs(t), "/home/u/.config/rsh")
	require.NoError(t, err)

	assert.Equal(t, "~/.rsh_history", cfg.HistoryPath)
	assert.Equal(t, 5, cfg.PollIntervalMS)
}

func TestLoadReadsOverrides(t *testing.T) {
	fs := newMemFs(t)
	writeFile(t, fs, "/cfg/config.yaml", "history_path: /tmp/hist\npoll_interval_ms: 10\n")

	cfg, err := Load(fs, "/cfg")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/hist", cfg.HistoryPath)
	assert.Equal(t, 10, cfg.PollIntervalMS)
	// Unset fields keep their defaults.
	assert.Equal(t, "~/.rshenv", cfg.EnvFile)
}

func TestLoadAcceptsConfigFilePath(t *testing.T) {
	fs := newMemFs(t)
	writeFile(t, fs, "/cfg/config.yaml", "history_path: /tmp/hist\n")

	cfg, err := Load(fs, "/cfg/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/hist", cfg.HistoryPath)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	fs := newMemFs(t)
	writeFile(t, fs, "/cfg/config.yaml", "no_such_setting: true\n")

	_, err := Load(fs, "/cfg")
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	fs := newMemFs(t)
	writeFile(t, fs, "/cfg/config.yaml", "prompt_accent: chartreuse\n")

	_, err := Load(fs, "/cfg")
	assert.Error(t, err)
}

func TestInitializeWritesDefaultConfig(t *testing.T) {
	fs := newMemFs(t)

	cfg, err := Initialize(fs, "/home/u/.config/rsh")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	data, err := afero.ReadFile(fs, filepath.Join("/home/u/.config/rsh", ConfigurationName))
	require.NoError(t, err)
	assert.Equal(t, defaultConfigData, data)
}

func TestInitializeKeepsExistingConfig(t *testing.T) {
	fs := newMemFs(t)
	writeFile(t, fs, "/cfg/config.yaml", "history_path: /custom\n")

	cfg, err := Initialize(fs, "/cfg")
	require.NoError(t, err)
	assert.Equal(t, "/custom", cfg.HistoryPath)
}
