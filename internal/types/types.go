// =============================================================================
// Purchase Order Consolidator - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - ingest / csvparser / xlsxparser (tables)
//   - pricing / aggregate             (consolidated rows, lot summaries)
//   - reconcile / catalog             (catalog entries, reconciliation result)
//   - report                          (purchase order metadata)
//   - pipeline / utils                (artifacts)
//
// =============================================================================

package types

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// INPUT TABLES
// =============================================================================

// FileFormat is the closed set of input encodings the reader understands.
// It is resolved once at ingestion and never re-inspected downstream.
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatCSV
	FormatSpreadsheet
)

// String returns the canonical extension for the format.
func (f FileFormat) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatSpreadsheet:
		return "xlsx"
	default:
		return "unknown"
	}
}

// Row maps a normalized column name (lower-case, trimmed) to its raw cell
// text. Keys are normalized exactly once by the reader.
type Row map[string]string

// Table is the parsed content of a single input file.
type Table struct {
	// SourceFile is the file name as supplied by the caller.
	SourceFile string

	// Format is the resolved input encoding.
	Format FileFormat

	// Columns holds the normalized headers in file order.
	Columns []string

	// Rows holds the non-empty data rows in file order.
	Rows []Row
}

// HasColumn reports whether the table carries the normalized column name.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// =============================================================================
// CONSOLIDATED DATA
// =============================================================================

// ConsolidatedRow is a Row tagged with the file it came from. Derived is nil
// until the pricing calculator has run.
type ConsolidatedRow struct {
	Row        Row
	SourceFile string
	Derived    *DerivedFields
}

// Get returns the cell for column, or "" when absent.
func (r ConsolidatedRow) Get(column string) string {
	return r.Row[column]
}

// DerivedFields holds the per-row values computed from quantity and price.
type DerivedFields struct {
	Quantity           float64
	UnitPrice          float64
	ExtendedRetail     decimal.Decimal
	ExtendedDiscounted decimal.Decimal
	LineTotal          decimal.Decimal
}

// DiscountFormula selects how the discounted extension is computed. Exactly
// one formula is applied to every row of a run.
type DiscountFormula int

const (
	// FormulaUnitPrice: extended_discounted = unit_price * rate / 100,
	// line_total = extended_discounted * quantity.
	FormulaUnitPrice DiscountFormula = iota

	// FormulaExtendedRetail: extended_discounted = extended_retail * rate / 100,
	// line_total = extended_discounted.
	FormulaExtendedRetail
)

// String returns the configuration spelling of the formula.
func (f DiscountFormula) String() string {
	if f == FormulaExtendedRetail {
		return "extended_retail"
	}
	return "unit_price"
}

// ParseDiscountFormula maps a configuration value onto a DiscountFormula.
func ParseDiscountFormula(s string) (DiscountFormula, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unit_price":
		return FormulaUnitPrice, true
	case "extended_retail":
		return FormulaExtendedRetail, true
	default:
		return FormulaUnitPrice, false
	}
}

// LotSummary is one line of the purchase-order product table.
type LotSummary struct {
	LotID              string
	Description        string
	Quantity           int64
	ExtendedRetail     decimal.Decimal
	ExtendedDiscounted decimal.Decimal
	LineTotal          decimal.Decimal
}

// =============================================================================
// REFERENCE CATALOG & RECONCILIATION
// =============================================================================

// CatalogEntry is a single reference item owned by a scope (e.g. a user).
type CatalogEntry struct {
	ItemNumber  string `json:"item_number"`
	Description string `json:"description"`
}

// UnmatchedItem is a processed identifier with no catalog counterpart.
type UnmatchedItem struct {
	ItemID      string   `json:"item_id"`
	SourceFiles []string `json:"source_files"`
}

// ValidationNotes carries the diagnostic counts of the two matching passes.
type ValidationNotes struct {
	ExactMatches      int `json:"exact_matches"`
	NormalizedMatches int `json:"normalized_matches"`
	ZeroPaddingIssues int `json:"zero_padding_issues"`
}

// ReconciliationResult summarises how the processed identifiers compare to
// the reference catalog. MatchedItemsCount + len(UnmatchedItems) always
// equals TotalProcessedItems.
type ReconciliationResult struct {
	TotalReferenceItems        int             `json:"total_reference_items"`
	TotalProcessedItems        int             `json:"total_processed_items"`
	MatchedItemsCount          int             `json:"matched_items_count"`
	UnmatchedItems             []UnmatchedItem `json:"unmatched_items"`
	MatchPercentage            float64         `json:"match_percentage"`
	FilesWithMissingReferences []string        `json:"files_with_missing_references"`
	ValidationNotes            ValidationNotes `json:"validation_notes"`
	Warning                    string          `json:"warning,omitempty"`
}

// =============================================================================
// PURCHASE ORDER METADATA
// =============================================================================

// POMetadata holds the free-form header fields printed on the purchase order.
// All fields are optional and used verbatim.
type POMetadata struct {
	PurchaseInfo   string `json:"purchase_info"`
	OrderDate      string `json:"order_date"`
	SellerName     string `json:"seller_name"`
	SellerPO       string `json:"seller_po"`
	SellerAddress  string `json:"seller_address"`
	CompanyName    string `json:"company_name"`
	CompanyAddress string `json:"company_address"`
	CompanyInfo    string `json:"company_info"`
	ShippingMethod string `json:"shipping_method"`
	PaymentTerms   string `json:"payment_terms"`
}

// FormatOrderDate renders OrderDate as MM/DD/YYYY when it is an ISO date or
// timestamp. Other text is returned trimmed; empty becomes "N/A".
func (m POMetadata) FormatOrderDate() string {
	s := strings.TrimSpace(m.OrderDate)
	if s == "" {
		return "N/A"
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("01/02/2006")
		}
	}
	return s
}

// =============================================================================
// ERRORS & ARTIFACTS
// =============================================================================

// FileError records a non-fatal failure for one input file.
type FileError struct {
	File string
	Err  error
}

func (e FileError) Error() string {
	return e.File + ": " + e.Err.Error()
}

func (e FileError) Unwrap() error { return e.Err }

// MarshalJSON renders the error as {"file": ..., "error": ...}.
func (e FileError) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		File  string `json:"file"`
		Error string `json:"error"`
	}{e.File, msg})
}

// ArtifactKind identifies a generated report.
type ArtifactKind string

const (
	ArtifactCSV      ArtifactKind = "csv"
	ArtifactPDF      ArtifactKind = "pdf"
	ArtifactWorkbook ArtifactKind = "xlsx"
)

// Artifact is a fully rendered report held in memory until it is stored.
type Artifact struct {
	Kind        ArtifactKind
	Name        string
	ContentType string
	Data        []byte
}

// ArtifactRef points at an artifact after the sink accepted it.
type ArtifactRef struct {
	Kind     ArtifactKind `json:"kind"`
	Name     string       `json:"name"`
	Location string       `json:"location"`
	Size     int64        `json:"size"`
}
