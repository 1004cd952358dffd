package config

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"
)

func TestBuiltinConfig(t *testing.T) {
	rawConfig := make(map[string]interface{})
	assert.Nil(t, yaml.Unmarshal(defaultConfigData, &rawConfig))

	knownFields := make(map[string]bool)
	rt := reflect.TypeOf(Configuration{})
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		assert.NotEmpty(t, jsonTag)
		jsonField := strings.Split(jsonTag, ",")[0]
		knownFields[jsonField] = true

		if _, ok := rawConfig[jsonField]; !ok {
			assert.False(t, true, "default config missing field: %q", jsonField)
		}
	}

	for k := range rawConfig {
		_, ok := knownFields[k]
		assert.True(t, ok, "default config contains invalid field: %q", k)
	}
}

func TestDefaultConfig(t *testing.T) {
	// Will panic() on load failure because it should never happen at runtime.
	cfg := defaultConfig()
	assert.NotNil(t, cfg)
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Configuration)
	}{
		{"bad accent", func(c *Configuration) { c.PromptAccent = "chartreuse" }},
		{"zero poll interval", func(c *Configuration) { c.PollIntervalMS = 0 }},
		{"huge poll interval", func(c *Configuration) { c.PollIntervalMS = 10000 }},
		{"empty history path", func(c *Configuration) { c.HistoryPath = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestExpandHome(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"~", "/home/u"},
		{"~/.rsh_history", "/home/u/.rsh_history"},
		{"/absolute/path", "/absolute/path"},
		{"relative", "relative"},
		{"~user/x", "~user/x"},
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, ExpandHome(tc.path, "/home/u"))
		})
	}
}

func TestLoadEnvOverlay(t *testing.T) {
	t.Run("missing file is absent", func(t *testing.T) {
		overlay, err := LoadEnvOverlay(newMemFs(t), "/home/u/.rshenv")
		require.NoError(t, err)
		assert.False(t, overlay.Present)
		assert.Empty(t, overlay.Paths)
	})

	t.Run("paths one per line", func(t *testing.T) {
		fs := newMemFs(t)
		raw := "/opt/tools\n\n# a comment\n  /home/u/bin  \n"
		writeFile(t, fs, "/home/u/.rshenv", raw)

		overlay, err := LoadEnvOverlay(fs, "/home/u/.rshenv")
		require.NoError(t, err)
		assert.True(t, overlay.Present)
		assert.Equal(t, []string{"/opt/tools", "/home/u/bin"}, overlay.Paths)
	})

	t.Run("empty file is still present", func(t *testing.T) {
		fs := newMemFs(t)
		writeFile(t, fs, "/home/u/.rshenv", "")

		overlay, err := LoadEnvOverlay(fs, "/home/u/.rshenv")
		require.NoError(t, err)
		assert.True(t, overlay.Present)
	})
}
