package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMainConfig_Defaults(t *testing.T) {
	cfg, err := LoadMainConfig("")
	require.NoError(t, err)

	assert.Equal(t, "./output", cfg.OutputDir)
	assert.Equal(t, 1, cfg.MaxConcurrency)
	assert.Equal(t, DefaultSampleSize, cfg.CSVSettings.SampleSize)
	assert.Equal(t, "minimal", cfg.Report.Schema)
	assert.Equal(t, "unit_price", cfg.Report.DiscountFormula)
	assert.Equal(t, "pallet_id", cfg.Report.LotColumn)
	assert.Equal(t, "series_desc", cfg.Report.LotDescriptionColumn)
	assert.Equal(t, DefaultItemIDColumns, cfg.Report.ItemIDColumns)
	assert.Equal(t, DefaultCompanyLines, cfg.PDF.CompanyLines)
	assert.True(t, cfg.PDF.CompressEnabled())
	assert.Equal(t, "sqlite", cfg.Catalog.Driver)
	assert.Equal(t, DefaultPageSize, cfg.Catalog.PageSize)
}

func TestLoadMainConfig_FromFile(t *testing.T) {
	path := writeConfig(t, `
output_dir: /tmp/po
log_level: debug
max_concurrency: 4
csv_settings:
  sample_size: 2048
  encoding: Windows-1252
report:
  schema: FULL
  discount_formula: extended_retail
  strict_numeric: true
  item_id_columns: [" Item_ID ", "SKU"]
pdf:
  compress: false
  row_height: 18
catalog:
  driver: postgres
  dsn: postgres://localhost/po
  page_size: 250
`)

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/po", cfg.OutputDir)
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.Equal(t, 2048, cfg.CSVSettings.SampleSize)
	assert.Equal(t, "full", cfg.Report.Schema)
	assert.Equal(t, "extended_retail", cfg.Report.DiscountFormula)
	assert.True(t, cfg.Report.StrictNumeric)
	assert.Equal(t, []string{"item_id", "sku"}, cfg.Report.ItemIDColumns)
	assert.False(t, cfg.PDF.CompressEnabled())
	assert.Equal(t, 18.0, cfg.PDF.RowHeight)
	assert.Equal(t, "postgres", cfg.Catalog.Driver)
	assert.Equal(t, 250, cfg.Catalog.PageSize)
}

func TestLoadMainConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "bad log level", body: "log_level: loud\n"},
		{name: "bad schema", body: "report:\n  schema: medium\n"},
		{name: "bad formula", body: "report:\n  discount_formula: gross\n"},
		{name: "postgres without dsn", body: "catalog:\n  driver: postgres\n"},
		{name: "file without reference", body: "catalog:\n  driver: file\n"},
		{name: "unknown driver", body: "catalog:\n  driver: mongo\n"},
		{name: "negative concurrency", body: "max_concurrency: -2\n"},
		{name: "tiny rows", body: "pdf:\n  row_height: 2\n"},
		{name: "not yaml", body: "report: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadMainConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMainConfig_MissingFile(t *testing.T) {
	_, err := LoadMainConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEnsureOutputDir(t *testing.T) {
	cfg := &MainConfig{OutputDir: filepath.Join(t.TempDir(), "a", "b")}
	require.NoError(t, cfg.EnsureOutputDir())
	info, err := os.Stat(cfg.OutputDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
