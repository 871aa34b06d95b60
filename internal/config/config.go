// =============================================================================
// Purchase Order Consolidator - Configuration Module
// =============================================================================
//
// This module is responsible for loading and validating the application
// configuration. A single YAML file (config.yaml) drives every component:
//
//   output_dir / log_*      : where artifacts and logs go
//   csv_settings            : delimiter sniffing and encoding of CSV uploads
//   report                  : required columns, discount formula, strictness
//   pdf                     : purchase order layout knobs
//   catalog                 : where the reference catalog lives
//   metrics                 : optional Prometheus textfile export
//
// Missing values fall back to defaults, so an empty path or an empty file is
// a valid configuration.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	// DefaultSampleSize is the number of leading bytes inspected to pick a CSV
	// delimiter.
	DefaultSampleSize = 1024

	// DefaultPageSize is the reference catalog page size.
	DefaultPageSize = 1000

	// DefaultRowHeight is the product table row height in points.
	DefaultRowHeight = 16.0
)

// DefaultCompanyLines is the fixed company header printed on purchase orders.
var DefaultCompanyLines = []string{"Book For Less LLC", "P.O. Box 344", "New York, NY 10001"}

// DefaultItemIDColumns lists the column names accepted as the item identifier,
// in priority order.
var DefaultItemIDColumns = []string{"item_id", "no.", "no", "item_number", "number"}

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
// This is loaded from the main config.yaml file.
type MainConfig struct {
	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputDir is the directory where generated reports are placed.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// UUIDFormat defines the format for generated artifact names.
	// Placeholders:
	//   {uuid}      - The run id
	//   {timestamp} - Run timestamp (YYYYMMDD_HHMMSS)
	//   {date}      - Run date (YYYYMMDD)
	//   {scope}     - Catalog scope of the request
	//   {kind}      - Artifact kind (csv, pdf, xlsx)
	//
	// Default: "{kind}_{timestamp}_{uuid}"
	UUIDFormat string `yaml:"uuid_format"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is the path to the application log file. Empty logs to stdout.
	LogFile string `yaml:"log_file"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat is "json" or "text".
	// Default: "json"
	LogFormat string `yaml:"log_format"`

	// Rotation limits for LogFile.
	LogMaxSizeMB  int `yaml:"log_max_size_mb"`
	LogMaxBackups int `yaml:"log_max_backups"`
	LogMaxAgeDays int `yaml:"log_max_age_days"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files parsed concurrently
	// within one request. Set to 1 for sequential processing.
	// Default: 1
	MaxConcurrency int `yaml:"max_concurrency"`

	CSVSettings CSVSettings    `yaml:"csv_settings"`
	Report      ReportSettings `yaml:"report"`
	PDF         PDFSettings    `yaml:"pdf"`
	Catalog     CatalogConfig  `yaml:"catalog"`
	Metrics     MetricsConfig  `yaml:"metrics"`
}

// =============================================================================
// CSV SETTINGS STRUCTURE
// =============================================================================

// CSVSettings contains settings for parsing CSV uploads.
type CSVSettings struct {
	// Delimiter forces a field separator. Empty or "auto" sniffs it:
	// comma when the sample contains one, otherwise semicolon.
	Delimiter string `yaml:"delimiter"`

	// SampleSize is the number of leading bytes used for sniffing.
	// Default: 1024
	SampleSize int `yaml:"sample_size"`

	// Encoding is the character encoding of the CSV file.
	// Supported: "UTF-8", "Windows-1252", "ISO-8859-1", "ISO-8859-15"
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`
}

// =============================================================================
// REPORT SETTINGS STRUCTURE
// =============================================================================

// ReportSettings controls consolidation, pricing and reconciliation.
type ReportSettings struct {
	// Schema is the required-column contract for uploads: "minimal" (6
	// columns) or "full" (14 columns).
	// Default: "minimal"
	Schema string `yaml:"schema"`

	// DiscountFormula is "unit_price" or "extended_retail".
	// Default: "unit_price"
	DiscountFormula string `yaml:"discount_formula"`

	// StrictNumeric rejects files whose numeric cells do not parse instead of
	// reading them as 0.
	StrictNumeric bool `yaml:"strict_numeric"`

	// LotColumn is the grouping key of the purchase order table.
	// Default: "pallet_id"
	LotColumn string `yaml:"lot_column"`

	// LotDescriptionColumn supplies the description of each lot.
	// Default: "series_desc"
	LotDescriptionColumn string `yaml:"lot_description_column"`

	// PriceColumn is the unit price column.
	// Default: "us_price"
	PriceColumn string `yaml:"price_column"`

	// ItemIDColumns are tried in order to find a row's item identifier.
	ItemIDColumns []string `yaml:"item_id_columns"`

	// ExportWorkbook also emits the consolidated rows as an .xlsx artifact.
	ExportWorkbook bool `yaml:"export_workbook"`
}

// =============================================================================
// PDF SETTINGS STRUCTURE
// =============================================================================

// PDFSettings controls the purchase order layout.
type PDFSettings struct {
	// CompanyLines is the fixed header printed at the top of every page.
	CompanyLines []string `yaml:"company_lines"`

	// RowHeight is the product table row height in points.
	// Default: 16
	RowHeight float64 `yaml:"row_height"`

	// Compress enables stream compression. Defaults to true when unset.
	Compress *bool `yaml:"compress"`
}

// CompressEnabled reports whether PDF streams should be compressed.
func (p PDFSettings) CompressEnabled() bool {
	return p.Compress == nil || *p.Compress
}

// =============================================================================
// CATALOG SETTINGS STRUCTURE
// =============================================================================

// CatalogConfig selects the reference catalog backend.
type CatalogConfig struct {
	// Driver is "postgres", "sqlite" or "file".
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// DSN is the connection string (postgres) or database path (sqlite).
	// Default for sqlite: "./data/catalog.db"
	DSN string `yaml:"dsn"`

	// Table holds the reference items.
	// Default: "item_reference"
	Table string `yaml:"table"`

	// PageSize is the number of entries fetched per query.
	// Default: 1000
	PageSize int `yaml:"page_size"`

	// ReferenceFile is the CSV/XLSX read by the "file" driver.
	ReferenceFile string `yaml:"reference_file"`
}

// MetricsConfig controls the metrics export.
type MetricsConfig struct {
	// Textfile, when set, receives the run metrics in Prometheus text format.
	Textfile string `yaml:"textfile"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file. An empty path
//     returns the defaults.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	ApplyDefaults(&config)

	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// ApplyDefaults sets default values for any unset configuration options.
func ApplyDefaults(config *MainConfig) {
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.UUIDFormat == "" {
		config.UUIDFormat = "{kind}_{timestamp}_{uuid}"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "json"
	}
	if config.LogMaxSizeMB == 0 {
		config.LogMaxSizeMB = 50
	}
	if config.LogMaxBackups == 0 {
		config.LogMaxBackups = 5
	}
	if config.LogMaxAgeDays == 0 {
		config.LogMaxAgeDays = 30
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 1
	}

	if config.CSVSettings.SampleSize == 0 {
		config.CSVSettings.SampleSize = DefaultSampleSize
	}
	if config.CSVSettings.Encoding == "" {
		config.CSVSettings.Encoding = "UTF-8"
	}

	r := &config.Report
	if r.Schema == "" {
		r.Schema = "minimal"
	}
	if r.DiscountFormula == "" {
		r.DiscountFormula = "unit_price"
	}
	if r.LotColumn == "" {
		r.LotColumn = "pallet_id"
	}
	if r.LotDescriptionColumn == "" {
		r.LotDescriptionColumn = "series_desc"
	}
	if r.PriceColumn == "" {
		r.PriceColumn = "us_price"
	}
	if len(r.ItemIDColumns) == 0 {
		r.ItemIDColumns = append([]string(nil), DefaultItemIDColumns...)
	}

	if len(config.PDF.CompanyLines) == 0 {
		config.PDF.CompanyLines = append([]string(nil), DefaultCompanyLines...)
	}
	if config.PDF.RowHeight == 0 {
		config.PDF.RowHeight = DefaultRowHeight
	}

	c := &config.Catalog
	if c.Driver == "" {
		c.Driver = "sqlite"
	}
	if c.DSN == "" && c.Driver == "sqlite" {
		c.DSN = "./data/catalog.db"
	}
	if c.Table == "" {
		c.Table = "item_reference"
	}
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
}

// Validate checks enumerated values and ranges. Column names are normalized
// to the lower-case form used by the readers.
func Validate(config *MainConfig) error {
	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", config.LogLevel)
	}

	switch strings.ToLower(config.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("log_format %q is not one of json, text", config.LogFormat)
	}

	if config.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1")
	}

	if config.CSVSettings.SampleSize < 1 {
		return fmt.Errorf("csv_settings.sample_size must be positive")
	}

	switch strings.ToLower(config.Report.Schema) {
	case "minimal", "full":
		config.Report.Schema = strings.ToLower(config.Report.Schema)
	default:
		return fmt.Errorf("report.schema %q is not one of minimal, full", config.Report.Schema)
	}

	switch strings.ToLower(config.Report.DiscountFormula) {
	case "unit_price", "extended_retail":
		config.Report.DiscountFormula = strings.ToLower(config.Report.DiscountFormula)
	default:
		return fmt.Errorf("report.discount_formula %q is not one of unit_price, extended_retail", config.Report.DiscountFormula)
	}

	config.Report.LotColumn = normalizeColumn(config.Report.LotColumn)
	config.Report.LotDescriptionColumn = normalizeColumn(config.Report.LotDescriptionColumn)
	config.Report.PriceColumn = normalizeColumn(config.Report.PriceColumn)
	for i, c := range config.Report.ItemIDColumns {
		config.Report.ItemIDColumns[i] = normalizeColumn(c)
	}

	if config.PDF.RowHeight < 8 || config.PDF.RowHeight > 72 {
		return fmt.Errorf("pdf.row_height must be between 8 and 72 points")
	}

	switch config.Catalog.Driver {
	case "postgres", "sqlite":
		if config.Catalog.DSN == "" {
			return fmt.Errorf("catalog.dsn is required for driver %q", config.Catalog.Driver)
		}
	case "file":
		if config.Catalog.ReferenceFile == "" {
			return fmt.Errorf("catalog.reference_file is required for driver \"file\"")
		}
	default:
		return fmt.Errorf("catalog.driver %q is not one of postgres, sqlite, file", config.Catalog.Driver)
	}

	if config.Catalog.PageSize < 1 {
		return fmt.Errorf("catalog.page_size must be positive")
	}

	return nil
}

// EnsureOutputDir creates the output directory if it doesn't exist.
func (c *MainConfig) EnsureOutputDir() error {
	if err := os.MkdirAll(c.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", c.OutputDir, err)
	}
	return nil
}

func normalizeColumn(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
