package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chtemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no boundary.yaml is found.
	chtemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "boundary.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.InDelta(t, 1000.0, cfg.Match.ProximityBufferMeters, 0.001)
	assert.InDelta(t, 50000.0, cfg.Match.ImpostorThresholdMeters, 0.001)
	assert.Equal(t, []string{"name_match", "rule_rank", "pop_diff"}, cfg.Match.ResolverPolicy)
	assert.Equal(t, "output", cfg.Paths.OutputDir)
}

func TestLoadFromYAML(t *testing.T) {
	chtemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/boundaries
match:
  proximity_buffer_meters: 500
paths:
  tiger_places: /data/tl_2023_us_place.shp
  output_dir: /data/out
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile("boundary.yaml", []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/boundaries", cfg.Store.DatabaseURL)
	assert.InDelta(t, 500.0, cfg.Match.ProximityBufferMeters, 0.001)
	assert.Equal(t, "/data/tl_2023_us_place.shp", cfg.Paths.TIGERPlaces)
	assert.Equal(t, "/data/out", cfg.Paths.OutputDir)
	assert.Equal(t, "debug", cfg.Log.Level)

	// File values override defaults; untouched keys keep theirs.
	assert.InDelta(t, 50000.0, cfg.Match.ImpostorThresholdMeters, 0.001)
}

func TestLoadFromEnv(t *testing.T) {
	chtemp(t)
	t.Setenv("BOUNDARY_STORE_DRIVER", "postgres")
	t.Setenv("BOUNDARY_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	err := InitLogger(LogConfig{Level: "not-a-level"})
	require.Error(t, err)
}
