// Package aggregate builds the purchase-order product table.
package aggregate

import (
	"math"

	"github.com/CaessarCZX/ERP-Books4less-BE/internal/types"
	"github.com/shopspring/decimal"
)

// Keys names the columns the aggregator reads.
type Keys struct {
	// Lot is the grouping column, "pallet_id" when empty.
	Lot string

	// Description is copied from the first row of each group,
	// "series_desc" when empty.
	Description string
}

// ByLot groups priced rows by exact lot value, in first-seen order. The
// description of a group is the one on its first row; quantity and money
// fields are summed. Rows without Derived fields contribute zero. The
// function is pure: the same input always yields the same summaries.
func ByLot(rows []types.ConsolidatedRow, keys Keys) []types.LotSummary {
	lotCol, descCol := keys.Lot, keys.Description
	if lotCol == "" {
		lotCol = "pallet_id"
	}
	if descCol == "" {
		descCol = "series_desc"
	}

	index := make(map[string]int)
	var (
		out  []types.LotSummary
		qtys []float64
	)

	for _, r := range rows {
		lot := r.Get(lotCol)
		i, ok := index[lot]
		if !ok {
			i = len(out)
			index[lot] = i
			out = append(out, types.LotSummary{
				LotID:              lot,
				Description:        r.Get(descCol),
				ExtendedRetail:     decimal.Zero,
				ExtendedDiscounted: decimal.Zero,
				LineTotal:          decimal.Zero,
			})
			qtys = append(qtys, 0)
		}

		d := r.Derived
		if d == nil {
			continue
		}
		qtys[i] += d.Quantity
		s := &out[i]
		s.ExtendedRetail = s.ExtendedRetail.Add(d.ExtendedRetail)
		s.ExtendedDiscounted = s.ExtendedDiscounted.Add(d.ExtendedDiscounted)
		s.LineTotal = s.LineTotal.Add(d.LineTotal)
	}

	// Fractional totals are truncated toward zero.
	for i := range out {
		out[i].Quantity = int64(math.Trunc(qtys[i]))
	}
	return out
}

// Totals sums the quantity and line total of a product table.
func Totals(lots []types.LotSummary) (qty int64, total decimal.Decimal) {
	total = decimal.Zero
	for _, l := range lots {
		qty += l.Quantity
		total = total.Add(l.LineTotal)
	}
	return qty, total
}
