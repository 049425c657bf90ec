package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ginjaninja78/prealert-engine/internal/shipment"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	origDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	// Temp dir so no config.yaml is found.
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "./input", cfg.InputDir)
	assert.Equal(t, "./datasets", cfg.DatasetsDir)
	assert.Equal(t, "{dataset}_{shipment}_{timestamp}", cfg.OutputNameFormat)
	assert.Equal(t, []string{"xml", "xlsx"}, cfg.ReportFormats)
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.True(t, cfg.ContinueOnError)
	assert.Equal(t, 15, cfg.PageSize)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "position", cfg.Compare.Pairing)
	assert.Zero(t, cfg.Compare.Tolerance)

	fields, err := cfg.CompareFields()
	require.NoError(t, err)
	assert.Contains(t, fields, shipment.FieldUnitPrice)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	yaml := `
input_dir: ./in
max_concurrency: 8
log:
  level: debug
  format: json
compare:
  fields: [qty, unitPrice]
  tolerance: 0.5
  pairing: key
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "./in", cfg.InputDir)
	assert.Equal(t, 8, cfg.MaxConcurrency)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, []string{"qty", "unitPrice"}, cfg.Compare.Fields)
	assert.InDelta(t, 0.5, cfg.Compare.Tolerance, 0.0001)
	assert.Equal(t, "key", cfg.Compare.Pairing)
	// Defaults still apply for unset values.
	assert.Equal(t, "./output", cfg.OutputDir)
	assert.Equal(t, []string{"dnNo", "partNo"}, cfg.Compare.KeyFields)
}

func TestLoadExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("page_size: 25\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.PageSize)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: warn\n"), 0o644))

	t.Setenv("PREALERT_LOG_LEVEL", "error")
	t.Setenv("PREALERT_COMPARE_TOLERANCE", "0.01")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.InDelta(t, 0.01, cfg.Compare.Tolerance, 0.00001)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *MainConfig)
	}{
		{"zero concurrency", func(c *MainConfig) { c.MaxConcurrency = 0 }},
		{"zero page size", func(c *MainConfig) { c.PageSize = 0 }},
		{"bad log format", func(c *MainConfig) { c.Log.Format = "xml" }},
		{"bad report format", func(c *MainConfig) { c.ReportFormats = []string{"pdf"} }},
		{"negative tolerance", func(c *MainConfig) { c.Compare.Tolerance = -1 }},
		{"unknown field", func(c *MainConfig) { c.Compare.Fields = []string{"weight"} }},
		{"bad pairing", func(c *MainConfig) { c.Compare.Pairing = "fuzzy" }},
		{"bad key field", func(c *MainConfig) {
			c.Compare.Pairing = "key"
			c.Compare.KeyFields = []string{"mawb"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	assert.NoError(t, cfg.Validate())
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.InputDir = filepath.Join(dir, "in")
	cfg.OutputDir = filepath.Join(dir, "out")
	cfg.InputArchiveDir = filepath.Join(dir, "in_archive")
	cfg.OutputArchiveDir = filepath.Join(dir, "out_archive")
	cfg.DatasetsDir = filepath.Join(dir, "datasets")
	cfg.LogsDir = filepath.Join(dir, "logs")

	require.NoError(t, cfg.EnsureDirectories())
	for _, d := range []string{cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.OutputArchiveDir, cfg.DatasetsDir, cfg.LogsDir} {
		assert.DirExists(t, d)
	}
}

func TestInitLogger(t *testing.T) {
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	logger, err := InitLogger(LogConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.Same(t, logger, zap.L())

	_, err = InitLogger(LogConfig{Level: "loud", Format: "console"})
	assert.Error(t, err)
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	require.NoError(t, WriteDefault(path, false))
	assert.Error(t, WriteDefault(path, false), "must not overwrite")
	require.NoError(t, WriteDefault(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	want := Default()
	assert.Equal(t, &want, cfg)
}
