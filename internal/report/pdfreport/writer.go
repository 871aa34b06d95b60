// =============================================================================
// Purchase Order Consolidator - PDF Purchase Order Writer
// =============================================================================
//
// Renders the purchase order on US Letter pages (units are points):
//
//   +------------------------------------------------------------+
//   | Company header              [Purchase Order | ...]         |
//   |                             [Date           | ...]         |
//   | [Vendor block]              [Ship To block]                |
//   | [Shipping Method            | Payment Terms              ] |
//   | [L/N | Item Number | Description | Ordered | Ext. Price  ] |
//   |  ... product rows ...                                      |
//   |  TOTAL row (last page only)                                |
//   | Generated on: MM/DD/YYYY HH:MM                 Page i of n |
//   +------------------------------------------------------------+
//
// PAGINATION:
//   Every page repeats the header and metadata blocks. The product table
//   holds Capacity(rowHeight) rows per page; the totals row takes one slot on
//   the final page, so a table that exactly fills a page pushes the totals
//   onto a page of its own.
//
// =============================================================================

package pdfreport

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/CaessarCZX/ERP-Books4less-BE/internal/aggregate"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/types"
	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// =============================================================================
// LAYOUT CONSTANTS
// =============================================================================

const (
	pageWidth = 612.0

	// tableTop is where the product table header starts.
	tableTop = 230.0

	// bottomLimit is the lowest y a product row may reach.
	bottomLimit = 742.0

	footerY = 762.0

	// minIDFontSize is the smallest size an item number is shrunk to before
	// it is allowed to overflow its cell.
	minIDFontSize = 5.0

	// MaxDescription is the number of characters of a lot description kept
	// before it is cut and suffixed with "...".
	MaxDescription = 40
)

type column struct {
	title string
	width float64
	align string
}

var productColumns = []column{
	{"L/N", 30, "C"},
	{"Item Number", 80, "L"},
	{"Description", 228, "L"},
	{"Ordered", 70, "R"},
	{"Ext. Price", 90, "R"},
}

// tableLeft centres the 498pt product table.
const tableLeft = (pageWidth - 498) / 2

var moneyPrinter = message.NewPrinter(language.AmericanEnglish)

// =============================================================================
// OPTIONS
// =============================================================================

// Options controls rendering.
type Options struct {
	// CompanyLines is printed top-left on every page; the first line bold.
	CompanyLines []string

	// RowHeight of the product table in points. Default 16.
	RowHeight float64

	// Compress enables stream compression.
	Compress bool

	// Now is printed in the footer and stored as the creation date.
	Now time.Time
}

func (o Options) withDefaults() Options {
	if o.RowHeight <= 0 {
		o.RowHeight = 16
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	return o
}

// =============================================================================
// PAGINATION
// =============================================================================

// Capacity returns how many table rows fit below the table header on a page.
func Capacity(rowHeight float64) int {
	n := int((bottomLimit - tableTop - rowHeight) / rowHeight)
	if n < 1 {
		return 1
	}
	return n
}

// Page is a slice [Start, End) of the product table plus whether the totals
// row is drawn on it.
type Page struct {
	Start, End int
	Totals     bool
}

// Paginate splits lots product rows plus one totals row over pages of
// capacity rows. There is always at least one page.
func Paginate(lots, capacity int) []Page {
	slots := lots + 1
	count := (slots + capacity - 1) / capacity

	pages := make([]Page, count)
	for i := range pages {
		start := min(i*capacity, lots)
		end := min(start+capacity, lots)
		pages[i] = Page{Start: start, End: end}
	}
	pages[count-1].Totals = true
	return pages
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// FormatMoney renders an amount as US currency, e.g. "$1,234.56".
func FormatMoney(d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	return sign + moneyPrinter.Sprintf("$%.2f", d.InexactFloat64())
}

// TruncateDescription keeps the first MaxDescription characters of s.
func TruncateDescription(s string) string {
	if utf8.RuneCountInString(s) <= MaxDescription {
		return s
	}
	return string([]rune(s)[:MaxDescription]) + "..."
}

// =============================================================================
// RENDERING
// =============================================================================

// Render writes the purchase order PDF for lots to w.
//
// PARAMETERS:
//   - w: Destination of the PDF bytes.
//   - lots: The aggregated product table, in display order.
//   - meta: Header fields printed verbatim (order date formatted MM/DD/YYYY).
//   - opts: Layout options.
func Render(w io.Writer, lots []types.LotSummary, meta types.POMetadata, opts Options) error {
	opts = opts.withDefaults()

	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetCompression(opts.Compress)
	pdf.SetCreationDate(opts.Now)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(tableLeft, 30, tableLeft)
	pdf.SetTitle("Purchase Order "+meta.PurchaseInfo, true)
	pdf.SetCreator("ERP-Books4less purchase order consolidator", true)

	r := &renderer{
		pdf:  pdf,
		tr:   pdf.UnicodeTranslatorFromDescriptor(""),
		opts: opts,
		meta: meta,
	}

	pages := Paginate(len(lots), Capacity(opts.RowHeight))
	qty, total := aggregate.Totals(lots)

	for i, pg := range pages {
		pdf.AddPage()
		r.header()

		y := r.tableHeader()
		for j := pg.Start; j < pg.End; j++ {
			r.productRow(y, j+1, lots[j])
			y += opts.RowHeight
		}
		if pg.Totals {
			r.totalsRow(y, qty, total)
		}

		r.footer(i+1, len(pages))
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render purchase order: %w", err)
	}
	return nil
}

type renderer struct {
	pdf  *fpdf.Fpdf
	tr   func(string) string
	opts Options
	meta types.POMetadata
}

// header draws the company lines and the four metadata blocks.
func (r *renderer) header() {
	p := r.pdf

	for i, line := range r.opts.CompanyLines {
		if i == 0 {
			p.SetFont("Helvetica", "B", 14)
		} else {
			p.SetFont("Helvetica", "", 10)
		}
		p.Text(50, 40+float64(i)*15, r.tr(line))
	}

	r.grid(pageWidth-275, 30, []float64{100, 100}, [][]string{
		{"Purchase Order", orNA(r.meta.PurchaseInfo)},
		{"Date", r.meta.FormatOrderDate()},
	}, false)

	r.grid(50, 100, []float64{225}, [][]string{
		{"Vendor:"}, {r.meta.SellerName}, {r.meta.SellerPO}, {r.meta.SellerAddress},
	}, true)

	r.grid(pageWidth-300, 100, []float64{250}, [][]string{
		{"Ship To:"}, {r.meta.CompanyName}, {r.meta.CompanyAddress}, {r.meta.CompanyInfo},
	}, true)

	r.grid(tableLeft, 180, []float64{249, 249}, [][]string{
		{"Shipping Method", "Payment Terms"},
		{orNA(r.meta.ShippingMethod), orNA(r.meta.PaymentTerms)},
	}, true)
}

// grid draws a bordered table. With headRow the first row is bold and
// shaded; otherwise the first column is bold.
func (r *renderer) grid(x, y float64, widths []float64, rows [][]string, headRow bool) {
	const h = 16.0
	p := r.pdf

	for ri, row := range rows {
		p.SetXY(x, y+float64(ri)*h)
		for ci, text := range row {
			bold := (headRow && ri == 0) || (!headRow && ci == 0)
			if bold {
				p.SetFont("Helvetica", "B", 9)
				p.SetFillColor(230, 230, 230)
			} else {
				p.SetFont("Helvetica", "", 9)
			}
			p.CellFormat(widths[ci], h, r.fit(text, widths[ci]), "1", 0, "L", bold, 0, "")
		}
	}
}

// tableHeader draws the product table header and returns the y of the first
// data row.
func (r *renderer) tableHeader() float64 {
	p := r.pdf
	p.SetFont("Helvetica", "B", 9)
	p.SetFillColor(200, 200, 200)
	p.SetXY(tableLeft, tableTop)
	for _, c := range productColumns {
		p.CellFormat(c.width, r.opts.RowHeight, c.title, "1", 0, "C", true, 0, "")
	}
	return tableTop + r.opts.RowHeight
}

func (r *renderer) productRow(y float64, line int, lot types.LotSummary) {
	r.row(y, []string{
		fmt.Sprintf("%d", line),
		lot.LotID,
		TruncateDescription(lot.Description),
		fmt.Sprintf("%d", lot.Quantity),
		FormatMoney(lot.LineTotal),
	}, false)
}

func (r *renderer) totalsRow(y float64, qty int64, total decimal.Decimal) {
	r.row(y, []string{"", "", "TOTAL:", fmt.Sprintf("%d", qty), FormatMoney(total)}, true)
}

func (r *renderer) row(y float64, cells []string, bold bool) {
	p := r.pdf
	style := ""
	if bold {
		style = "B"
	}
	p.SetFont("Helvetica", style, 9)
	p.SetXY(tableLeft, y)
	for i, c := range productColumns {
		align := c.align
		if bold && i == 2 {
			align = "R"
		}
		if i == 1 {
			// Item numbers are never clipped.
			r.shrinkCell(c.width, cells[i], align)
			continue
		}
		p.CellFormat(c.width, r.opts.RowHeight, r.fit(cells[i], c.width), "1", 0, align, false, 0, "")
	}
}

// shrinkCell draws s at the largest font size down to minIDFontSize that
// fits the cell. Text that still does not fit overflows the border.
func (r *renderer) shrinkCell(width float64, s, align string) {
	p := r.pdf
	s = r.tr(s)
	size, _ := p.GetFontSize()
	orig := size
	for size > minIDFontSize && p.GetStringWidth(s) > width-4 {
		size = max(minIDFontSize, size-0.5)
		p.SetFontSize(size)
	}
	p.CellFormat(width, r.opts.RowHeight, s, "1", 0, align, false, 0, "")
	p.SetFontSize(orig)
}

func (r *renderer) footer(page, pages int) {
	p := r.pdf
	p.SetFont("Helvetica", "", 8)
	p.Text(50, footerY, "Generated on: "+r.opts.Now.Format("01/02/2006 15:04"))

	label := fmt.Sprintf("Page %d of %d", page, pages)
	p.Text(pageWidth-50-p.GetStringWidth(label), footerY, label)
}

// orNA substitutes "N/A" for a blank metadata value.
func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// fit converts s to the core font encoding and clips it to the cell width.
func (r *renderer) fit(s string, width float64) string {
	s = r.tr(s)
	limit := width - 4
	if r.pdf.GetStringWidth(s) <= limit {
		return s
	}
	for len(s) > 0 && r.pdf.GetStringWidth(s+"...") > limit {
		s = s[:len(s)-1]
	}
	return s + "..."
}
