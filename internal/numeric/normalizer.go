// =============================================================================
// Purchase Order Consolidator - Numeric Normalizer
// =============================================================================
//
// Cleans currency formatted cell text ("$1,234.56") into float64 values.
// Only the literal characters "$", "," and " " are stripped; no locale aware
// parsing is attempted.
//
// FALLBACK POLICY:
//   - Lenient (default): anything that does not parse becomes 0.
//   - Strict: a non-empty cell that does not parse is a *ParseError.
//   Empty cells are 0 in both modes.
//
// =============================================================================

package numeric

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var stripper = strings.NewReplacer("$", "", ",", "", " ", "")

// ParseError reports a cell that could not be read as a number in strict mode.
type ParseError struct {
	Column string
	Index  int
	Value  string
}

func (e *ParseError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("column %q row %d: %q is not a number", e.Column, e.Index+1, e.Value)
	}
	return fmt.Sprintf("row %d: %q is not a number", e.Index+1, e.Value)
}

// Normalizer converts raw cell text into numbers.
type Normalizer struct {
	// Strict turns unparseable non-empty cells into errors instead of 0.
	Strict bool
}

// clean strips the currency decoration from s.
func clean(s string) string {
	return stripper.Replace(s)
}

// Parse converts a single cell. ok is false when the cell is non-empty and
// could not be parsed; the returned value is 0 in that case.
func Parse(s string) (v float64, ok bool) {
	cleaned := clean(s)
	if cleaned == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Value converts one cell under the normalizer's policy. index is only used
// to build the error.
func (n Normalizer) Value(column string, index int, s string) (float64, error) {
	f, ok := Parse(s)
	if !ok && n.Strict {
		return 0, &ParseError{Column: column, Index: index, Value: s}
	}
	return f, nil
}

// Column converts every cell independently, preserving order. In strict mode
// the first failing cell aborts the conversion.
func (n Normalizer) Column(column string, values []string) ([]float64, error) {
	out := make([]float64, len(values))
	for i, s := range values {
		f, err := n.Value(column, i, s)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}
