// =============================================================================
// Purchase Order Consolidator - Main Entry Point
// =============================================================================
//
// This is the main entry point for the purchase order consolidator CLI. It
// delegates command execution to the cmd package.
//
// USAGE:
//   po process         - Consolidate vendor files into a purchase order
//   po catalog import  - Load a reference catalog for a scope
//   po catalog list    - Print the reference catalog of a scope
//   po version         - Display the application version
//
// ARCHITECTURE:
//   - cmd/                  : CLI command definitions (Cobra)
//   - internal/pipeline     : Request orchestration
//   - internal/ingest       : CSV/XLSX readers and column contracts
//   - internal/catalog      : Reference catalog stores (PostgreSQL, SQLite, file)
//   - internal/report       : CSV and PDF renderers
//   - pkg/utils             : Artifact storage and run summaries
//
// =============================================================================

package main

import (
	"github.com/CaessarCZX/ERP-Books4less-BE/cmd"
)

// main is the entry point of the application.
func main() {
	cmd.Execute()
}
