// =============================================================================
// Purchase Order Consolidator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (po)
//   ├── processCmd (po process)
//   ├── catalogCmd (po catalog)
//   │   ├── importCmd (po catalog import)
//   │   └── listCmd   (po catalog list)
//   └── versionCmd (po version)
//
// CONFIGURATION:
//   Settings are resolved in this order (last wins):
//   1. Built-in defaults
//   2. The YAML file given by --config (or PO_CONFIG)
//   3. PO_* environment variables, also read from a .env file
//   4. Command line flags
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/CaessarCZX/ERP-Books4less-BE/internal/config"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "po",
	Short: "Purchase order consolidator - merge vendor sheets into a purchase order",
	Long: `po consolidates vendor purchase order sheets (CSV/XLSX) into a single
dataset, prices it with a discount rate, groups it by pallet and reconciles
the item numbers against a reference catalog.

Each run produces:
  - An item summary CSV (item_id, item_desc, quantity)
  - A paginated purchase order PDF
  - Optionally, the consolidated rows as an XLSX workbook
  - A JSON result with the reconciliation statistics

Example Usage:
  po process --file a.xlsx --file b.csv --discount-rate 3 --scope u1
  po catalog import --file reference.xlsx --scope u1
  po catalog list --scope u1`,

	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to the main configuration file")
	flags.BoolP("verbose", "v", false, "Enable debug logging")
	flags.String("output-dir", "", "Directory for generated reports (overrides output_dir)")
	flags.String("log-level", "", "Log level: debug, info, warn, error (overrides log_level)")
	flags.String("catalog-driver", "", "Catalog backend: postgres, sqlite, file (overrides catalog.driver)")
	flags.String("catalog-dsn", "", "Catalog connection string or database path (overrides catalog.dsn)")
	flags.String("reference-file", "", "Reference file for the file catalog driver (overrides catalog.reference_file)")

	for _, name := range []string{"config", "verbose", "output-dir", "log-level", "catalog-driver", "catalog-dsn", "reference-file"} {
		viper.BindPFlag(name, flags.Lookup(name))
	}
}

// initConfig loads .env and wires PO_* environment variables into viper.
func initConfig() {
	_ = godotenv.Load()

	viper.SetEnvPrefix("PO")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadConfig reads the YAML configuration and applies flag and environment
// overrides.
func loadConfig() (*config.MainConfig, error) {
	cfg, err := config.LoadMainConfig(viper.GetString("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load main config: %w", err)
	}

	if v := viper.GetString("output-dir"); v != "" {
		cfg.OutputDir = v
	}
	if v := viper.GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if viper.GetBool("verbose") {
		cfg.LogLevel = "debug"
	}
	if v := viper.GetString("catalog-driver"); v != "" {
		cfg.Catalog.Driver = v
	}
	if v := viper.GetString("catalog-dsn"); v != "" {
		cfg.Catalog.DSN = v
	}
	if v := viper.GetString("reference-file"); v != "" {
		cfg.Catalog.ReferenceFile = v
	}

	config.ApplyDefaults(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupLogging builds the logger. Logs go to stderr so stdout carries only
// command output.
func setupLogging(cfg *config.MainConfig) (*slog.Logger, io.Closer, error) {
	return logging.Setup(logging.Options{
		Service:    "po-consolidator",
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Output:     os.Stderr,
	})
}
