// =============================================================================
// Purchase Order Consolidator - Validation Engine
// =============================================================================
//
// This module checks uploaded tables against a required-column contract and,
// in strict mode, that the numeric columns actually hold numbers.
//
// CONTRACTS:
//   - minimal : the six columns the reports read
//   - full    : the complete fourteen-column vendor export
//
// ERROR HANDLING:
//   Validation errors are per-file. The caller records them against the file
//   and keeps processing the remaining uploads.
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/CaessarCZX/ERP-Books4less-BE/internal/numeric"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/types"
)

// =============================================================================
// REQUIRED-COLUMN CONTRACTS
// =============================================================================

// MinimalColumns is the baseline contract.
var MinimalColumns = []string{"series_desc", "pallet_id", "item_id", "item_desc", "us_price", "quantity"}

// FullColumns is the complete vendor export contract.
var FullColumns = []string{
	"series_code", "series_desc", "pallet_id", "pallet_available_flag",
	"item_id", "item_desc", "family_code", "reporting_group_desc",
	"publisher_desc", "imprint_desc", "us_price", "can_price",
	"pub_date", "quantity",
}

// ColumnsFor returns the required columns for a contract name.
func ColumnsFor(schema string) ([]string, error) {
	switch strings.ToLower(schema) {
	case "", "minimal":
		return MinimalColumns, nil
	case "full":
		return FullColumns, nil
	default:
		return nil, fmt.Errorf("unknown column contract %q", schema)
	}
}

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// MissingColumnsError names the required columns absent from a table, in
// contract order.
type MissingColumnsError struct {
	Missing []string
}

// Error implements the error interface.
func (e *MissingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// =============================================================================
// VALIDATORS
// =============================================================================

// RequireColumns returns a *MissingColumnsError when any of required is not
// among columns.
func RequireColumns(columns []string, required []string) error {
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}

	var missing []string
	for _, r := range required {
		if _, ok := present[r]; !ok {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Missing: missing}
	}
	return nil
}

// RequireNumeric checks that every non-empty cell of the given columns parses
// as a number. Columns absent from the table are ignored here; the column
// contract reports them.
func RequireNumeric(table *types.Table, columns ...string) error {
	n := numeric.Normalizer{Strict: true}
	for _, column := range columns {
		if !table.HasColumn(column) {
			continue
		}
		values := make([]string, len(table.Rows))
		for i, row := range table.Rows {
			values[i] = row[column]
		}
		if _, err := n.Column(column, values); err != nil {
			return err
		}
	}
	return nil
}
