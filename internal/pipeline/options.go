package pipeline

import (
	"fmt"
	"slices"

	"github.com/CaessarCZX/ERP-Books4less-BE/internal/aggregate"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/config"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/report/pdfreport"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/types"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/validation"
)

// Options is the resolved per-pipeline configuration.
type Options struct {
	CSV config.CSVSettings

	// Required is the column contract every upload must meet.
	Required []string

	StrictNumeric  bool
	Formula        types.DiscountFormula
	QuantityColumn string
	PriceColumn    string
	Lots           aggregate.Keys
	ItemIDColumns  []string
	ExportWorkbook bool

	// NameFormat names stored artifacts; see utils.GenerateOutputFileName.
	NameFormat string

	// MaxConcurrency bounds per-file parsing. Values below 1 mean 1.
	MaxConcurrency int

	PDF pdfreport.Options
}

// OptionsFromConfig resolves Options from the main configuration. The
// quantity and price columns are always added to the column contract.
func OptionsFromConfig(cfg *config.MainConfig) (Options, error) {
	required, err := validation.ColumnsFor(cfg.Report.Schema)
	if err != nil {
		return Options{}, err
	}
	formula, ok := types.ParseDiscountFormula(cfg.Report.DiscountFormula)
	if !ok {
		return Options{}, fmt.Errorf("unknown discount formula %q", cfg.Report.DiscountFormula)
	}

	opts := Options{
		CSV:            cfg.CSVSettings,
		Required:       slices.Clone(required),
		StrictNumeric:  cfg.Report.StrictNumeric,
		Formula:        formula,
		QuantityColumn: "quantity",
		PriceColumn:    cfg.Report.PriceColumn,
		Lots: aggregate.Keys{
			Lot:         cfg.Report.LotColumn,
			Description: cfg.Report.LotDescriptionColumn,
		},
		ItemIDColumns:  cfg.Report.ItemIDColumns,
		ExportWorkbook: cfg.Report.ExportWorkbook,
		NameFormat:     cfg.UUIDFormat,
		MaxConcurrency: cfg.MaxConcurrency,
		PDF: pdfreport.Options{
			CompanyLines: cfg.PDF.CompanyLines,
			RowHeight:    cfg.PDF.RowHeight,
			Compress:     cfg.PDF.CompressEnabled(),
		},
	}
	for _, c := range []string{opts.QuantityColumn, opts.PriceColumn} {
		if c != "" && !slices.Contains(opts.Required, c) {
			opts.Required = append(opts.Required, c)
		}
	}
	return opts, nil
}

func (o Options) withDefaults() Options {
	if o.Required == nil {
		o.Required = validation.MinimalColumns
	}
	if o.QuantityColumn == "" {
		o.QuantityColumn = "quantity"
	}
	if o.PriceColumn == "" {
		o.PriceColumn = "us_price"
	}
	if len(o.ItemIDColumns) == 0 {
		o.ItemIDColumns = config.DefaultItemIDColumns
	}
	if o.NameFormat == "" {
		o.NameFormat = "{kind}_{timestamp}_{uuid}"
	}
	if o.MaxConcurrency < 1 {
		o.MaxConcurrency = 1
	}
	return o
}
