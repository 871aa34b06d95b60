// =============================================================================
// Purchase Order Consolidator - Derived-Field Calculator
// =============================================================================
//
// Computes the money columns of every consolidated row:
//
//   extended_retail     = quantity * unit_price
//   extended_discounted = unit_price * rate/100          (FormulaUnitPrice)
//                       = extended_retail * rate/100     (FormulaExtendedRetail)
//   line_total          = extended_discounted * quantity (FormulaUnitPrice)
//                       = extended_discounted            (FormulaExtendedRetail)
//
// One formula is fixed per Calculator, so a run never mixes them. The rate is
// a percentage and is not range-checked.
//
// =============================================================================

package pricing

import (
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/numeric"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/types"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/validation"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Calculator fills types.DerivedFields.
type Calculator struct {
	Formula    types.DiscountFormula
	Normalizer numeric.Normalizer

	// QuantityColumn defaults to "quantity".
	QuantityColumn string

	// PriceColumn defaults to "us_price".
	PriceColumn string
}

func (c Calculator) columns() (qty, price string) {
	qty, price = c.QuantityColumn, c.PriceColumn
	if qty == "" {
		qty = "quantity"
	}
	if price == "" {
		price = "us_price"
	}
	return qty, price
}

// Apply returns copies of rows with Derived set. The input slice and its row
// maps are left untouched.
//
// PARAMETERS:
//   - rows: Consolidated rows in arrival order.
//   - rate: Discount rate as a percentage (3 means 3%).
//
// RETURNS:
//   - The priced rows, same order and length.
//   - A *validation.MissingColumnsError if a row lacks the quantity or price
//     column, or a *numeric.ParseError in strict mode.
func (c Calculator) Apply(rows []types.ConsolidatedRow, rate float64) ([]types.ConsolidatedRow, error) {
	qtyCol, priceCol := c.columns()
	pct := decimal.NewFromFloat(rate).Div(hundred)

	out := make([]types.ConsolidatedRow, len(rows))
	for i, row := range rows {
		if err := validation.RequireColumns(keys(row.Row), []string{qtyCol, priceCol}); err != nil {
			return nil, err
		}

		qty, err := c.Normalizer.Value(qtyCol, i, row.Get(qtyCol))
		if err != nil {
			return nil, err
		}
		price, err := c.Normalizer.Value(priceCol, i, row.Get(priceCol))
		if err != nil {
			return nil, err
		}

		out[i] = types.ConsolidatedRow{
			Row:        row.Row,
			SourceFile: row.SourceFile,
			Derived:    c.derive(qty, price, pct),
		}
	}
	return out, nil
}

func (c Calculator) derive(qty, price float64, pct decimal.Decimal) *types.DerivedFields {
	q := decimal.NewFromFloat(qty)
	p := decimal.NewFromFloat(price)

	d := &types.DerivedFields{
		Quantity:       qty,
		UnitPrice:      price,
		ExtendedRetail: q.Mul(p),
	}

	switch c.Formula {
	case types.FormulaExtendedRetail:
		d.ExtendedDiscounted = d.ExtendedRetail.Mul(pct)
		d.LineTotal = d.ExtendedDiscounted
	default:
		d.ExtendedDiscounted = p.Mul(pct)
		d.LineTotal = d.ExtendedDiscounted.Mul(q)
	}
	return d
}

func keys(r types.Row) []string {
	out := make([]string, 0, len(r))
	for k := range r {
		out = append(out, k)
	}
	return out
}
