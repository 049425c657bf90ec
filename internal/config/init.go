package config

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// WriteDefault writes the default main configuration to path. It refuses to
// overwrite an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return eris.Errorf("%s already exists (use --force to overwrite)", path)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return eris.Wrap(err, "failed to encode default config")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "failed to create directory %s", dir)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// ExampleDataset is a starter dataset configuration for `config init`.
func ExampleDataset() DatasetConfig {
	return DatasetConfig{
		Name:                 "Carrier 810 manifest",
		Code:                 "810",
		Direction:            "Inbound",
		FileMatchingPatterns: []string{"810_*.csv", "810_*.xlsx"},
		CSVSettings: CSVSettings{
			Delimiter:    ",",
			HeaderRows:   1,
			DataStartRow: 2,
			Encoding:     "UTF-8",
		},
		XLSXSettings: XLSXSettings{HeaderRow: 1, DataStartRow: 2},
		ColumnMapping: []ColumnMapping{
			{Header: "DN No", Field: "dnNo", Required: true},
			{Header: "Part No", Field: "partNo", Required: true},
			{Header: "Product Name", Field: "productName"},
			{Header: "COO", Field: "coo", MaxLength: 2},
			{Header: "HS Code", Field: "hsCode", MaxLength: 12},
			{Header: "QTY", Field: "qty", Required: true},
			{Header: "Unit Price", Field: "unitPrice", Required: true},
			{Header: "Total Price (USD)", Field: "totalPriceUSD"},
		},
		TransformationRules: []TransformationRule{
			{Field: "Unit Price", Actions: []TransformationAction{{Type: "strip_currency"}}},
			{Field: "Total Price (USD)", Actions: []TransformationAction{{Type: "strip_currency"}}},
			{Field: "Part No", Actions: []TransformationAction{{Type: "trim"}, {Type: "uppercase"}}},
		},
		Grouping:     Grouping{GroupByHeader: "MAWB", SortOrder: "asc"},
		StaticFields: []StaticField{{Field: "cn", Value: "CN"}},
		IDPrefix:     "810",
	}
}

// WriteExampleDataset writes ExampleDataset into datasetsDir as 810.yaml.
func WriteExampleDataset(datasetsDir string, force bool) (string, error) {
	path := filepath.Join(datasetsDir, "810.yaml")
	if _, err := os.Stat(path); err == nil && !force {
		return "", eris.Errorf("%s already exists (use --force to overwrite)", path)
	}

	data, err := yaml.Marshal(ExampleDataset())
	if err != nil {
		return "", eris.Wrap(err, "failed to encode example dataset")
	}
	if err := os.MkdirAll(datasetsDir, 0o755); err != nil {
		return "", eris.Wrapf(err, "failed to create directory %s", datasetsDir)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "failed to write %s", path)
	}
	return path, nil
}
