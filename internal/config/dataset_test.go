package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const prealertDataset = `
name: Forwarder pre-alert
code: PA
file_matching_patterns:
  - "prealert_*.csv"
  - "PA-*.xlsx"
csv_settings:
  delimiter: ";"
  encoding: Windows-1252
column_mapping:
  - header: DN
    field: dnNo
    required: true
  - header: Quantity
    field: QTY
grouping:
  group_by_header: MAWB
static_fields:
  - field: bookingRef
    value: BK019092
`

func TestParseDatasetConfigDefaults(t *testing.T) {
	cfg, err := ParseDatasetConfig([]byte(prealertDataset))
	require.NoError(t, err)

	assert.Equal(t, "Inbound", cfg.Direction)
	assert.Equal(t, ";", cfg.CSVSettings.Delimiter)
	assert.Equal(t, 1, cfg.CSVSettings.HeaderRows)
	assert.Equal(t, 2, cfg.CSVSettings.DataStartRow)
	assert.Equal(t, "Windows-1252", cfg.CSVSettings.Encoding)
	assert.Equal(t, 1, cfg.XLSXSettings.HeaderRow)
	assert.Equal(t, 2, cfg.XLSXSettings.DataStartRow)
	assert.Equal(t, "asc", cfg.Grouping.SortOrder)
	assert.Equal(t, "PA", cfg.IDPrefix)
	require.Len(t, cfg.ColumnMapping, 2)
	assert.True(t, cfg.ColumnMapping[0].Required)
}

func TestParseDatasetConfigRejectsUnknownFields(t *testing.T) {
	tests := map[string]string{
		"mapping":   "column_mapping:\n  - header: X\n    field: weight\n",
		"no header": "column_mapping:\n  - field: qty\n",
		"static":    "static_fields:\n  - field: colour\n    value: red\n",
		"direction": "direction: Sideways\n",
		"sort":      "grouping:\n  sort_by_field: qty\n  sort_order: random\n",
		"rows":      "csv_settings:\n  header_rows: 3\n  data_start_row: 2\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDatasetConfig([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadDatasetConfigs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prealert.yaml"), []byte(prealertDataset), 0o644))
	_, err := WriteExampleDataset(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	configs, err := LoadDatasetConfigs(dir)
	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.Equal(t, filepath.Join(dir, "prealert.yaml"), configs["PA"].SourcePath)
	assert.Equal(t, "Carrier 810 manifest", configs["810"].Name)

	assert.Same(t, configs["PA"], MatchDataset("/tmp/in/prealert_2025-10-15.csv", configs))
	assert.Same(t, configs["PA"], MatchDataset("pa-0001.XLSX", configs))
	assert.Same(t, configs["810"], MatchDataset("810_176-16884485.xlsx", configs))
	assert.Nil(t, MatchDataset("invoice.pdf", configs))
}

func TestLoadDatasetConfigsDuplicateCode(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("code: X\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yml"), []byte("code: X\n"), 0o644))

	_, err := LoadDatasetConfigs(dir)
	assert.Error(t, err)
}

func TestMappingTemplateIsRelativeToDataset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pa.yaml")
	require.NoError(t, os.WriteFile(path, []byte("code: PA\nmapping_template: mapping.xlsx\n"), 0o644))

	cfg, err := LoadDatasetConfig(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "mapping.xlsx"), cfg.MappingTemplate)
}

func TestDefaultDatasetConfig(t *testing.T) {
	cfg := DefaultDatasetConfig()

	assert.Equal(t, "default", cfg.Code)
	assert.Equal(t, "ITEM", cfg.IDPrefix)
	assert.Equal(t, "Inbound", cfg.Direction)
	assert.Empty(t, cfg.ColumnMapping)
	assert.NoError(t, validateDatasetConfig(cfg))
}
