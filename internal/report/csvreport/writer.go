// Package csvreport renders the grouped item summary CSV.
//
// Consolidated rows (not lots) are grouped by (item_id, item_desc) and their
// quantities summed. When item_desc is absent, series_desc stands in for it.
package csvreport

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/CaessarCZX/ERP-Books4less-BE/internal/numeric"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/types"
)

// Header is the first line of every summary.
var Header = []string{"item_id", "item_desc", "quantity"}

// MissingColumnError names a column the summary cannot be built without.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("cannot build item summary: column %q is missing", e.Column)
}

// Line is one summary row.
type Line struct {
	ItemID      string
	Description string
	Quantity    float64
}

// Summarize groups rows by normalized item id and description in first-seen
// order.
func Summarize(rows []types.ConsolidatedRow) ([]Line, error) {
	type key struct{ id, desc string }

	index := make(map[key]int)
	var lines []Line

	for _, r := range rows {
		id, ok := r.Row["item_id"]
		if !ok {
			return nil, &MissingColumnError{Column: "item_id"}
		}
		desc, ok := r.Row["item_desc"]
		if !ok {
			if desc, ok = r.Row["series_desc"]; !ok {
				return nil, &MissingColumnError{Column: "item_desc"}
			}
		}
		rawQty, ok := r.Row["quantity"]
		if !ok {
			return nil, &MissingColumnError{Column: "quantity"}
		}

		qty, _ := numeric.Parse(rawQty)
		if r.Derived != nil {
			qty = r.Derived.Quantity
		}

		k := key{NormalizeItemID(id), desc}
		i, seen := index[k]
		if !seen {
			i = len(lines)
			index[k] = i
			lines = append(lines, Line{ItemID: k.id, Description: k.desc})
		}
		lines[i].Quantity += qty
	}
	return lines, nil
}

// Render writes the summary CSV for rows to w.
func Render(w io.Writer, rows []types.ConsolidatedRow) error {
	lines, err := Summarize(rows)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, l := range lines {
		record := []string{l.ItemID, l.Description, strconv.FormatFloat(l.Quantity, 'f', -1, 64)}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// NormalizeItemID converts numeric identifiers ("007", "123.0", "1.23e3") to
// integer form, truncating any fraction. Non-numeric ids are returned trimmed.
func NormalizeItemID(id string) string {
	id = strings.TrimSpace(id)
	f, err := strconv.ParseFloat(id, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return id
	}
	f = math.Trunc(f)
	if math.Abs(f) >= 1<<63 {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatInt(int64(f), 10)
}
