package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chromakey.yaml")
	yaml := "size: 512\ncutoff: 30\nusage_exit_code: 2\npalette_method: kmeans\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 512, cfg.Size)
	assert.Equal(t, 30.0, cfg.Cutoff)
	assert.Equal(t, 2, cfg.UsageExitCode)
	assert.Equal(t, "kmeans", cfg.PaletteMethod)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("CHROMAKEY_SIZE", "0")
	t.Setenv("CHROMAKEY_LENIENT_THRESHOLD", "true")
	t.Setenv("CHROMAKEY_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Size)
	assert.True(t, cfg.LenientThreshold)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		modify func(c *Config)
	}{
		{"negative size", func(c *Config) { c.Size = -1 }},
		{"negative cutoff", func(c *Config) { c.Cutoff = -3 }},
		{"exit code", func(c *Config) { c.UsageExitCode = 300 }},
		{"palette method", func(c *Config) { c.PaletteMethod = "median" }},
		{"palette size", func(c *Config) { c.PaletteSize = 0 }},
	}
	require.NoError(t, Default().Validate())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
