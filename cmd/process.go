// =============================================================================
// Purchase Order Consolidator - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs one consolidation
// request over the given vendor files.
//
// COMMAND USAGE:
//   po process --file a.xlsx --file b.csv --discount-rate 3 --scope u1 [flags]
//
// FLAGS:
//   --file           : Input file (repeatable, order is preserved)
//   --discount-rate  : Discount percentage applied to the unit price
//   --scope          : Reference catalog scope (e.g. a user id)
//   --summary        : Also write a run summary text file
//   --export-workbook: Also store the consolidated rows as XLSX
//   --seller-*, --company-*, ... : Purchase order header fields
//
// PROCESSING PIPELINE:
//   1. Load configuration and set up logging
//   2. Read the input files
//   3. Open the reference catalog (a failure only degrades reconciliation)
//   4. Run the pipeline
//   5. Write the summary and the metrics textfile
//   6. Print the JSON result
//
// =============================================================================

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/CaessarCZX/ERP-Books4less-BE/internal/catalog"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/metrics"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/pipeline"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/types"
	"github.com/CaessarCZX/ERP-Books4less-BE/pkg/utils"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	inputFiles     []string
	discountRate   float64
	scope          string
	writeSummary   bool
	exportWorkbook bool
	metadata       types.POMetadata
)

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Consolidate vendor files into a purchase order",
	Long: `The process command merges the given CSV/XLSX files into one dataset,
computes the discounted prices, groups the rows by pallet and reconciles the
item numbers against the reference catalog of the given scope.

Files that cannot be read are reported and skipped; the run fails only when
no file is usable.

On success:
  - The item summary CSV and the purchase order PDF are written to the
    output directory
  - The JSON result is printed to stdout`,

	Args: cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(processCmd)

	f := processCmd.Flags()
	f.StringArrayVarP(&inputFiles, "file", "f", nil, "Input file to consolidate (repeatable)")
	f.Float64Var(&discountRate, "discount-rate", 0, "Discount percentage, e.g. 3 for 3%")
	f.StringVar(&scope, "scope", "", "Reference catalog scope")
	f.BoolVar(&writeSummary, "summary", false, "Write a run summary file to the output directory")
	f.BoolVar(&exportWorkbook, "export-workbook", false, "Also store the consolidated rows as XLSX")

	f.StringVar(&metadata.PurchaseInfo, "purchase-info", "", "Purchase order reference")
	f.StringVar(&metadata.OrderDate, "order-date", "", "Order date (YYYY-MM-DD)")
	f.StringVar(&metadata.SellerName, "seller-name", "", "Seller name")
	f.StringVar(&metadata.SellerPO, "seller-po", "", "Seller purchase order number")
	f.StringVar(&metadata.SellerAddress, "seller-address", "", "Seller address")
	f.StringVar(&metadata.CompanyName, "company-name", "", "Buyer company name")
	f.StringVar(&metadata.CompanyAddress, "company-address", "", "Buyer company address")
	f.StringVar(&metadata.CompanyInfo, "company-info", "", "Buyer contact information")
	f.StringVar(&metadata.ShippingMethod, "shipping-method", "", "Shipping method")
	f.StringVar(&metadata.PaymentTerms, "payment-terms", "", "Payment terms")

	processCmd.MarkFlagRequired("file")
}

// =============================================================================
// PROCESSING LOGIC
// =============================================================================

func runProcess(cmd *cobra.Command) error {
	ctx := cmd.Context()

	// =========================================================================
	// STEP 1: Load Configuration
	// =========================================================================
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if exportWorkbook {
		cfg.Report.ExportWorkbook = true
	}
	if err := cfg.EnsureOutputDir(); err != nil {
		return err
	}

	log, closer, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	// =========================================================================
	// STEP 2: Read Input Files
	// =========================================================================
	files, err := readInputFiles(inputFiles)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 3: Open Reference Catalog
	// =========================================================================
	var reader pipeline.CatalogReader
	store, err := catalog.Open(ctx, cfg.Catalog, cfg.CSVSettings)
	if err != nil {
		log.Warn("reference catalog unavailable", "driver", cfg.Catalog.Driver, "error", err)
	} else {
		defer store.Close()
		reader = store
	}

	// =========================================================================
	// STEP 4: Run Pipeline
	// =========================================================================
	opts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}

	rec := metrics.NewRecorder()
	p := pipeline.New(opts, pipeline.Deps{
		Catalog: reader,
		Sink:    utils.NewDirSink(cfg.OutputDir),
		Logger:  log,
		Metrics: rec,
	})

	res, runErr := p.Run(ctx, pipeline.Request{
		Scope:        scope,
		Files:        files,
		DiscountRate: discountRate,
		Metadata:     metadata,
	})

	// =========================================================================
	// STEP 5: Summary and Metrics
	// =========================================================================
	if cfg.Metrics.Textfile != "" {
		if err := rec.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.Warn("failed to write metrics textfile", "path", cfg.Metrics.Textfile, "error", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	if writeSummary {
		path, err := utils.WriteSummaryLog(utils.RunSummary{
			RunID:          res.RunID,
			Scope:          scope,
			StartTime:      res.StartedAt,
			EndTime:        res.FinishedAt,
			AcceptedFiles:  res.AcceptedFiles,
			FailedFiles:    res.FileErrors,
			RowsProcessed:  res.Stats.RowsConsolidated,
			Lots:           res.Stats.Lots,
			Artifacts:      res.Artifacts,
			Reconciliation: res.Reconciliation,
		}, cfg.OutputDir)
		if err != nil {
			log.Warn("failed to write run summary", "error", err)
		} else {
			log.Info("run summary written", "path", path)
		}
	}

	// =========================================================================
	// STEP 6: Print Result
	// =========================================================================
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// readInputFiles loads every path, keeping the given order. The format is
// taken from the file extension.
func readInputFiles(paths []string) ([]pipeline.InputFile, error) {
	files := make([]pipeline.InputFile, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}
		files = append(files, pipeline.InputFile{
			Name:      filepath.Base(path),
			Extension: filepath.Ext(path),
			Content:   content,
		})
	}
	return files, nil
}
