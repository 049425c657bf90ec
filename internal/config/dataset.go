package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/prealert-engine/internal/shipment"
)

// =============================================================================
// DATASET CONFIGURATION STRUCTURE
// =============================================================================

// DatasetConfig describes the files one source system produces and how
// their columns become line items.
type DatasetConfig struct {
	// Name is the human-readable name used in logs and reports.
	Name string `yaml:"name"`

	// Code is a short identifier, used in output file names.
	Code string `yaml:"code"`

	// Direction is "Inbound" or "Outbound". Default: "Inbound"
	Direction string `yaml:"direction"`

	// FileMatchingPatterns are glob patterns matched against input file
	// names, e.g. "810_*.csv" or "prealert_*.xlsx".
	FileMatchingPatterns []string `yaml:"file_matching_patterns"`

	// CSVSettings apply to .csv / .txt inputs.
	CSVSettings CSVSettings `yaml:"csv_settings"`

	// XLSXSettings apply to .xlsx inputs.
	XLSXSettings XLSXSettings `yaml:"xlsx_settings"`

	// ColumnMapping maps source headers to line-item fields. When empty and
	// MappingTemplate is empty, headers are matched to field names directly
	// ("dnNo", "qty", ...).
	ColumnMapping []ColumnMapping `yaml:"column_mapping"`

	// MappingTemplate is an optional XLSX workbook holding the column
	// mapping, relative to the dataset file. It replaces ColumnMapping.
	MappingTemplate string `yaml:"mapping_template,omitempty"`

	// TransformationRules are applied to source values before mapping.
	TransformationRules []TransformationRule `yaml:"transformation_rules"`

	// Grouping splits one file into shipments.
	Grouping Grouping `yaml:"grouping"`

	// StaticFields fill line-item fields that the source does not carry.
	StaticFields []StaticField `yaml:"static_fields"`

	// IDPrefix prefixes generated item ids ("{prefix}-{n}"). Default: Code
	IDPrefix string `yaml:"id_prefix"`

	// SourcePath is the file this config was read from.
	SourcePath string `yaml:"-"`
}

// CSVSettings contains settings for parsing CSV files.
type CSVSettings struct {
	// Delimiter separates fields. Use "\t" for tab. Default: ","
	Delimiter string `yaml:"delimiter"`

	// HeaderRows is the number of header rows. Multi-row headers are joined
	// with a space. Default: 1
	HeaderRows int `yaml:"header_rows"`

	// DataStartRow is the 1-based row where data begins. Default: 2
	DataStartRow int `yaml:"data_start_row"`

	// Encoding is "UTF-8", "ISO-8859-1" or "Windows-1252". Default: "UTF-8"
	Encoding string `yaml:"encoding"`

	// Comment, when set, marks lines to skip (e.g. "#").
	Comment string `yaml:"comment,omitempty"`
}

// XLSXSettings contains settings for reading line-item workbooks.
type XLSXSettings struct {
	// Sheet is the sheet name. Default: the first sheet.
	Sheet string `yaml:"sheet"`

	// HeaderRow is the 1-based header row. Default: 1
	HeaderRow int `yaml:"header_row"`

	// DataStartRow is the 1-based row where data begins. Default: 2
	DataStartRow int `yaml:"data_start_row"`
}

// ColumnMapping binds one source column to a line-item field, with the
// validation rules for its values.
type ColumnMapping struct {
	// Header is the source column header.
	Header string `yaml:"header"`

	// Field is the line-item field name ("dnNo", "qty", ...).
	Field string `yaml:"field"`

	// DataType is "string", "integer", "decimal", "alphanumeric" or "alpha".
	// Default: the natural type of Field.
	DataType string `yaml:"data_type,omitempty"`

	// MaxLength limits string values. 0 means no limit.
	MaxLength int `yaml:"max_length,omitempty"`

	// Required rejects rows where the value is empty.
	Required bool `yaml:"required,omitempty"`
}

// TransformationRule defines the transformations for one source column.
type TransformationRule struct {
	// Field is the source column header.
	Field string `yaml:"field"`

	// Actions are applied in order.
	Actions []TransformationAction `yaml:"actions"`
}

// TransformationAction defines a single transformation action.
type TransformationAction struct {
	// Type is the transformation type. Supported types:
	//   - "prepend_string", "append_string"
	//   - "trim", "trim_left", "trim_right"
	//   - "uppercase", "lowercase"
	//   - "replace", "regex_replace"
	//   - "pad_zeros_to_length", "ensure_length", "remove_leading_zeros"
	//   - "normalize_whitespace", "extract_digits"
	//   - "strip_currency"    : removes "$", "SAR", "USD" and thousands separators
	//   - "format_number"     : fixed decimal places
	//   - "default_if_empty"
	//   - "lookup"
	//   - "copy_from"         : copies another column's value
	Type string `yaml:"type"`

	// Value is the parameter for the transformation.
	Value string `yaml:"value"`

	// Find is used by "replace" and "regex_replace".
	Find string `yaml:"find,omitempty"`

	// LookupTable is used by "lookup".
	LookupTable map[string]string `yaml:"lookup_table,omitempty"`
}

// Grouping defines how rows are split into shipments.
type Grouping struct {
	// GroupByHeader is the source column holding the shipment (MAWB)
	// number. When empty the whole file is one shipment.
	GroupByHeader string `yaml:"group_by_header"`

	// DefaultShipment names the shipment when GroupByHeader is empty or a
	// row has no value. Default: the file name without extension.
	DefaultShipment string `yaml:"default_shipment,omitempty"`

	// SortByField optionally sorts items within a shipment (line-item field).
	SortByField string `yaml:"sort_by_field,omitempty"`

	// SortOrder is "asc" or "desc". Default: "asc"
	SortOrder string `yaml:"sort_order,omitempty"`
}

// StaticField is a constant value for a line-item field.
type StaticField struct {
	Field string `yaml:"field"`
	Value string `yaml:"value"`

	// Override replaces values present in the source. By default only
	// empty values are filled.
	Override bool `yaml:"override,omitempty"`
}

// =============================================================================
// DATASET LOADING FUNCTIONS
// =============================================================================

// LoadDatasetConfigs loads every *.yaml / *.yml file in datasetsDir.
//
// RETURNS:
//   - Dataset configurations keyed by code (file name when code is empty).
//   - An error if the directory cannot be listed or any file is invalid.
func LoadDatasetConfigs(datasetsDir string) (map[string]*DatasetConfig, error) {
	configs := make(map[string]*DatasetConfig)

	files, err := filepath.Glob(filepath.Join(datasetsDir, "*.yaml"))
	if err != nil {
		return nil, eris.Wrap(err, "failed to list dataset configs")
	}
	ymlFiles, err := filepath.Glob(filepath.Join(datasetsDir, "*.yml"))
	if err != nil {
		return nil, eris.Wrap(err, "failed to list dataset configs")
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		cfg, err := LoadDatasetConfig(file)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to load %s", file)
		}

		key := cfg.Code
		if key == "" {
			key = filepath.Base(file)
		}
		if _, dup := configs[key]; dup {
			return nil, eris.Errorf("duplicate dataset code %q in %s", key, file)
		}
		configs[key] = cfg
	}

	return configs, nil
}

// LoadDatasetConfig loads and validates a single dataset configuration.
func LoadDatasetConfig(filePath string) (*DatasetConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, eris.Wrap(err, "failed to read file")
	}

	cfg, err := ParseDatasetConfig(data)
	if err != nil {
		return nil, err
	}
	cfg.SourcePath = filePath
	if cfg.MappingTemplate != "" && !filepath.IsAbs(cfg.MappingTemplate) {
		cfg.MappingTemplate = filepath.Join(filepath.Dir(filePath), cfg.MappingTemplate)
	}

	return cfg, nil
}

// ParseDatasetConfig decodes a dataset configuration, applies defaults and
// validates it.
func ParseDatasetConfig(data []byte) (*DatasetConfig, error) {
	var cfg DatasetConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, eris.Wrap(err, "failed to parse file")
	}

	applyDatasetConfigDefaults(&cfg)

	if err := validateDatasetConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DefaultDatasetConfig returns the dataset used for files no config
// matches: headers are matched to field names, one shipment per file.
func DefaultDatasetConfig() *DatasetConfig {
	cfg := &DatasetConfig{
		Name: "Default",
		Code: "default",
	}
	applyDatasetConfigDefaults(cfg)
	cfg.IDPrefix = "ITEM"
	return cfg
}

// applyDatasetConfigDefaults sets default values for unset options.
func applyDatasetConfigDefaults(cfg *DatasetConfig) {
	if cfg.Direction == "" {
		cfg.Direction = "Inbound"
	}

	if cfg.CSVSettings.Delimiter == "" {
		cfg.CSVSettings.Delimiter = ","
	}
	if cfg.CSVSettings.HeaderRows == 0 {
		cfg.CSVSettings.HeaderRows = 1
	}
	if cfg.CSVSettings.DataStartRow == 0 {
		cfg.CSVSettings.DataStartRow = cfg.CSVSettings.HeaderRows + 1
	}
	if cfg.CSVSettings.Encoding == "" {
		cfg.CSVSettings.Encoding = "UTF-8"
	}

	if cfg.XLSXSettings.HeaderRow == 0 {
		cfg.XLSXSettings.HeaderRow = 1
	}
	if cfg.XLSXSettings.DataStartRow == 0 {
		cfg.XLSXSettings.DataStartRow = cfg.XLSXSettings.HeaderRow + 1
	}

	if cfg.Grouping.SortOrder == "" {
		cfg.Grouping.SortOrder = "asc"
	}

	if cfg.IDPrefix == "" {
		cfg.IDPrefix = cfg.Code
	}
}

// validateDatasetConfig checks field names and enumerations.
func validateDatasetConfig(cfg *DatasetConfig) error {
	if cfg.Direction != "Inbound" && cfg.Direction != "Outbound" {
		return eris.Errorf("direction must be Inbound or Outbound, got %q", cfg.Direction)
	}
	if cfg.CSVSettings.DataStartRow <= cfg.CSVSettings.HeaderRows {
		return eris.Errorf("csv_settings.data_start_row (%d) must come after the header rows (%d)",
			cfg.CSVSettings.DataStartRow, cfg.CSVSettings.HeaderRows)
	}
	if cfg.XLSXSettings.DataStartRow <= cfg.XLSXSettings.HeaderRow {
		return eris.Errorf("xlsx_settings.data_start_row (%d) must come after header_row (%d)",
			cfg.XLSXSettings.DataStartRow, cfg.XLSXSettings.HeaderRow)
	}

	for _, m := range cfg.ColumnMapping {
		if m.Header == "" {
			return eris.Errorf("column_mapping entry for field %q has no header", m.Field)
		}
		if _, err := shipment.ParseField(m.Field); err != nil {
			return eris.Wrap(err, "column_mapping")
		}
	}
	for _, sf := range cfg.StaticFields {
		if _, err := shipment.ParseField(sf.Field); err != nil {
			return eris.Wrap(err, "static_fields")
		}
	}
	if cfg.Grouping.SortByField != "" {
		if _, err := shipment.ParseField(cfg.Grouping.SortByField); err != nil {
			return eris.Wrap(err, "grouping.sort_by_field")
		}
	}
	switch cfg.Grouping.SortOrder {
	case "asc", "desc":
	default:
		return eris.Errorf("grouping.sort_order must be asc or desc, got %q", cfg.Grouping.SortOrder)
	}

	return nil
}

// =============================================================================
// FILE MATCHING
// =============================================================================

// MatchDataset returns the dataset whose file patterns match the base name
// of filePath. Datasets are tried in code order so the result is stable.
// Returns nil when nothing matches.
func MatchDataset(filePath string, configs map[string]*DatasetConfig) *DatasetConfig {
	fileName := strings.ToLower(filepath.Base(filePath))

	codes := make([]string, 0, len(configs))
	for code := range configs {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		cfg := configs[code]
		for _, pattern := range cfg.FileMatchingPatterns {
			matched, err := filepath.Match(strings.ToLower(pattern), fileName)
			if err == nil && matched {
				return cfg
			}
		}
	}

	return nil
}
