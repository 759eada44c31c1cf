package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("GEOTAB_CONFIG", filepath.Join(t.TempDir(), "absent.json"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"processing": {"selection": "D", "tiling_min": 50},
		"paths": {"input_tree": "~/holdings/volumes/GO_0xxx"}
	}`), 0o644))
	t.Setenv("GEOTAB_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "D", cfg.Processing.Selection)
	assert.Equal(t, 50, cfg.Processing.TilingMin)
	assert.Equal(t, defaultWorkers, cfg.Processing.ObservationWorkers)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "holdings/volumes/GO_0xxx"), cfg.Paths.InputTree)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"processing": {"selection": "SX"}}`), 0o644))
	t.Setenv("GEOTAB_CONFIG", path)

	_, err := Load()
	assert.ErrorContains(t, err, "selection")
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"parallel jobs": func(c *Config) { c.Processing.ParallelJobs = 0 },
		"workers":       func(c *Config) { c.Processing.ObservationWorkers = -1 },
		"sampling":      func(c *Config) { c.Processing.Sampling = 0 },
		"tiling min":    func(c *Config) { c.Processing.TilingMin = -5 },
		"first":         func(c *Config) { c.Processing.First = -1 },
		"selection":     func(c *Config) { c.Processing.Selection = "" },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
