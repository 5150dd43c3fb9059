package cli

import (
	"bytes"
	"testing"

	"github.com/mhpishahang/bbn/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, exit, err := Parse(nil, &bytes.Buffer{})
		require.NoError(t, err)
		assert.False(t, exit)
		assert.Equal(t, &app.Config{LogFormat: "text", LogLevel: "info", Workers: 2}, cfg)
	})

	t.Run("flags and positional paths", func(t *testing.T) {
		cfg, _, err := Parse([]string{
			"--config", "base.hcl",
			"--log-format", "JSON",
			"--log-level", "debug",
			"--workers", "4",
			"--observe", "WetGrass=wet",
			"--observe", "Sprinkler=off",
			"extra.hcl",
		}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, []string{"base.hcl", "extra.hcl"}, cfg.SettingsPaths)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, 4, cfg.Workers)
		assert.Equal(t, []app.Observation{
			{Node: "WetGrass", State: "wet"},
			{Node: "Sprinkler", State: "off"},
		}, cfg.Observations)
	})

	t.Run("environment provides defaults", func(t *testing.T) {
		t.Setenv(EnvConfig, "env.hcl")
		t.Setenv(EnvLogLevel, "warn")
		t.Setenv(EnvWorkers, "8")

		cfg, _, err := Parse([]string{"--workers", "1"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, []string{"env.hcl"}, cfg.SettingsPaths)
		assert.Equal(t, "warn", cfg.LogLevel)
		assert.Equal(t, 1, cfg.Workers, "flags override the environment")
	})

	t.Run("help exits cleanly", func(t *testing.T) {
		out := &bytes.Buffer{}
		cfg, exit, err := Parse([]string{"-h"}, out)
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	})

	errCases := map[string]struct {
		args []string
		want string
	}{
		"unknown flag":     {[]string{"--nope"}, "flag provided but not defined"},
		"bad observation":  {[]string{"--observe", "WetGrass"}, "expected Node=State"},
		"bad log format":   {[]string{"--log-format", "xml"}, "log-format"},
		"bad log level":    {[]string{"--log-level", "loud"}, "log-level"},
		"negative workers": {[]string{"--workers", "-1"}, "workers"},
	}
	for name, tc := range errCases {
		t.Run(name, func(t *testing.T) {
			_, _, err := Parse(tc.args, &bytes.Buffer{})
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.want)
		})
	}

	t.Run("invalid worker environment", func(t *testing.T) {
		t.Setenv(EnvWorkers, "many")
		_, _, err := Parse(nil, &bytes.Buffer{})
		assert.ErrorContains(t, err, EnvWorkers)
	})
}
