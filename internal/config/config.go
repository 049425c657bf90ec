// =============================================================================
// Pre-Alert Engine - Configuration Module
// =============================================================================
//
// This module loads the main application configuration and the per-dataset
// configurations that describe each source system's files.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): directories, logging, comparison defaults
//   2. Dataset Configs (datasets/*.yaml): one file per source system
//      (carrier 810 manifest, forwarder pre-alert, ...)
//
// The main config is read through viper so every key can be overridden from
// the environment with the PREALERT_ prefix:
//
//   PREALERT_LOG_LEVEL=debug
//   PREALERT_COMPARE_TOLERANCE=0.01
//
// =============================================================================

package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"

	"github.com/ginjaninja78/prealert-engine/internal/shipment"
)

// EnvPrefix is the prefix for environment overrides.
const EnvPrefix = "PREALERT"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for CSV / XLSX / YAML files to process.
	// Default: "./input"
	InputDir string `yaml:"input_dir" mapstructure:"input_dir"`

	// OutputDir receives the generated XML and XLSX reports.
	// Default: "./output"
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`

	// InputArchiveDir receives input files after they were processed.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir" mapstructure:"input_archive_dir"`

	// OutputArchiveDir is for long-term storage of generated reports.
	// Default: "./output_archive"
	OutputArchiveDir string `yaml:"output_archive_dir" mapstructure:"output_archive_dir"`

	// DatasetsDir holds one YAML file per source system.
	// Default: "./datasets"
	DatasetsDir string `yaml:"datasets_dir" mapstructure:"datasets_dir"`

	// LogsDir receives the error and summary logs written by `process`.
	// Default: "./logs"
	LogsDir string `yaml:"logs_dir" mapstructure:"logs_dir"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputNameFormat defines report file names, without extension.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {dataset}   - Dataset code
	//   {shipment}  - Shipment (MAWB) number
	//
	// Default: "{dataset}_{shipment}_{timestamp}"
	OutputNameFormat string `yaml:"output_name_format" mapstructure:"output_name_format"`

	// ReportFormats lists the report types written per shipment.
	// Valid values: "xml", "xlsx". Default: both.
	ReportFormats []string `yaml:"report_formats" mapstructure:"report_formats"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency bounds how many files are loaded at once.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency" mapstructure:"max_concurrency"`

	// ContinueOnError keeps processing other files when one fails.
	// Default: true
	ContinueOnError bool `yaml:"continue_on_error" mapstructure:"continue_on_error"`

	// PageSize is the default number of rows per board page.
	// Default: 15
	PageSize int `yaml:"page_size" mapstructure:"page_size"`

	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Compare CompareConfig `yaml:"compare" mapstructure:"compare"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Default: "info"
	Level string `yaml:"level" mapstructure:"level"`

	// Format is "json" or "console". Default: "console"
	Format string `yaml:"format" mapstructure:"format"`
}

// CompareConfig holds the defaults for `prealert compare`.
type CompareConfig struct {
	// Fields are the line-item fields evaluated on every pair.
	Fields []string `yaml:"fields" mapstructure:"fields"`

	// Tolerance is the absolute tolerance for numeric fields.
	Tolerance float64 `yaml:"tolerance" mapstructure:"tolerance"`

	// Pairing is "position" or "key".
	Pairing string `yaml:"pairing" mapstructure:"pairing"`

	// KeyFields form the composite key when Pairing is "key".
	KeyFields []string `yaml:"key_fields" mapstructure:"key_fields"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the configuration used when no file is present.
func Default() MainConfig {
	return MainConfig{
		InputDir:         "./input",
		OutputDir:        "./output",
		InputArchiveDir:  "./input_archive",
		OutputArchiveDir: "./output_archive",
		DatasetsDir:      "./datasets",
		LogsDir:          "./logs",
		OutputNameFormat: "{dataset}_{shipment}_{timestamp}",
		ReportFormats:    []string{"xml", "xlsx"},
		MaxConcurrency:   4,
		ContinueOnError:  true,
		PageSize:         15,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Compare: CompareConfig{
			Fields: []string{
				string(shipment.FieldDocumentNumber),
				string(shipment.FieldPartNumber),
				string(shipment.FieldQuantity),
				string(shipment.FieldUnitPrice),
				string(shipment.FieldTotalPriceUSD),
			},
			Tolerance: 0,
			Pairing:   "position",
			KeyFields: []string{
				string(shipment.FieldDocumentNumber),
				string(shipment.FieldPartNumber),
			},
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("input_dir", d.InputDir)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("input_archive_dir", d.InputArchiveDir)
	v.SetDefault("output_archive_dir", d.OutputArchiveDir)
	v.SetDefault("datasets_dir", d.DatasetsDir)
	v.SetDefault("logs_dir", d.LogsDir)
	v.SetDefault("output_name_format", d.OutputNameFormat)
	v.SetDefault("report_formats", d.ReportFormats)
	v.SetDefault("max_concurrency", d.MaxConcurrency)
	v.SetDefault("continue_on_error", d.ContinueOnError)
	v.SetDefault("page_size", d.PageSize)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("compare.fields", d.Compare.Fields)
	v.SetDefault("compare.tolerance", d.Compare.Tolerance)
	v.SetDefault("compare.pairing", d.Compare.Pairing)
	v.SetDefault("compare.key_fields", d.Compare.KeyFields)
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Load reads the main configuration.
//
// PARAMETERS:
//   - configPath: path to a YAML file. When empty, "config.yaml" in the
//     working directory is used if present, otherwise defaults apply.
//
// RETURNS:
//   - The validated configuration.
//   - An error if an explicit file is missing or any value is invalid.
func Load(configPath string) (*MainConfig, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configPath != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg MainConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return nil, eris.Wrap(err, "config: invalid configuration")
	}

	return &cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *MainConfig) Validate() error {
	if c.MaxConcurrency < 1 {
		return eris.Errorf("max_concurrency must be >= 1, got %d", c.MaxConcurrency)
	}
	if c.PageSize < 1 {
		return eris.Errorf("page_size must be >= 1, got %d", c.PageSize)
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return eris.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}

	for _, f := range c.ReportFormats {
		switch strings.ToLower(f) {
		case "xml", "xlsx":
		default:
			return eris.Errorf("unknown report format %q", f)
		}
	}

	if c.Compare.Tolerance < 0 {
		return eris.Errorf("compare.tolerance must be >= 0, got %v", c.Compare.Tolerance)
	}
	if _, err := c.CompareFields(); err != nil {
		return err
	}
	switch c.Compare.Pairing {
	case "position":
	case "key":
		if _, err := c.CompareKeyFields(); err != nil {
			return err
		}
	default:
		return eris.Errorf("compare.pairing must be position or key, got %q", c.Compare.Pairing)
	}

	return nil
}

// CompareFields resolves compare.fields to line-item fields.
func (c *MainConfig) CompareFields() ([]shipment.Field, error) {
	fields, err := shipment.ParseFields(c.Compare.Fields)
	if err != nil {
		return nil, eris.Wrap(err, "compare.fields")
	}
	return fields, nil
}

// CompareKeyFields resolves compare.key_fields to line-item fields.
func (c *MainConfig) CompareKeyFields() ([]shipment.Field, error) {
	fields, err := shipment.ParseFields(c.Compare.KeyFields)
	if err != nil {
		return nil, eris.Wrap(err, "compare.key_fields")
	}
	return fields, nil
}

// EnsureDirectories creates every configured directory that does not exist.
func (c *MainConfig) EnsureDirectories() error {
	dirs := []string{
		c.InputDir,
		c.OutputDir,
		c.InputArchiveDir,
		c.OutputArchiveDir,
		c.DatasetsDir,
		c.LogsDir,
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "failed to create directory %s", dir)
		}
	}

	return nil
}
