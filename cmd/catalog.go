// =============================================================================
// Purchase Order Consolidator - Catalog Commands
// =============================================================================
//
// COMMAND USAGE:
//   po catalog import --file reference.xlsx --scope u1
//   po catalog list --scope u1
//
// The reference file needs the columns "No." and "Description". Importing
// replaces every entry of the scope.
//
// =============================================================================

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/CaessarCZX/ERP-Books4less-BE/internal/catalog"
	"github.com/spf13/cobra"
)

var (
	catalogFile  string
	catalogScope string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the reference catalog",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace the catalog entries of a scope with a reference file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, closer, err := setupLogging(cfg)
		if err != nil {
			return err
		}
		defer closer.Close()

		content, err := os.ReadFile(catalogFile)
		if err != nil {
			return fmt.Errorf("failed to read reference file: %w", err)
		}
		entries, err := catalog.ReadEntries(filepath.Base(catalogFile), content, filepath.Ext(catalogFile), cfg.CSVSettings)
		if err != nil {
			return err
		}

		store, err := catalog.Open(cmd.Context(), cfg.Catalog, cfg.CSVSettings)
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Replace(cmd.Context(), catalogScope, entries)
		if err != nil {
			return err
		}
		log.Info("catalog imported", "scope", catalogScope, "entries", n, "file", catalogFile)
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entries into scope %q\n", n, catalogScope)
		return nil
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the catalog entries of a scope as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		_, closer, err := setupLogging(cfg)
		if err != nil {
			return err
		}
		defer closer.Close()

		store, err := catalog.Open(cmd.Context(), cfg.Catalog, cfg.CSVSettings)
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := catalog.Collect(store.Entries(cmd.Context(), catalogScope))
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"scope":   catalogScope,
			"count":   len(entries),
			"entries": entries,
		})
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogImportCmd, catalogListCmd)

	catalogCmd.PersistentFlags().StringVar(&catalogScope, "scope", "", "Catalog scope (e.g. a user id)")
	catalogImportCmd.Flags().StringVarP(&catalogFile, "file", "f", "", "Reference file (CSV or XLSX)")
	catalogImportCmd.MarkFlagRequired("file")
}
