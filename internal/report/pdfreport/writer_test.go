package pdfreport

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/CaessarCZX/ERP-Books4less-BE/internal/types"
	"github.com/ledongthuc/pdf"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 5, 14, 7, 0, 0, time.UTC)

func lots(n int) []types.LotSummary {
	out := make([]types.LotSummary, n)
	for i := range out {
		out[i] = types.LotSummary{
			LotID:       fmt.Sprintf("P%03d", i+1),
			Description: "Lot",
			Quantity:    1,
			LineTotal:   decimal.NewFromInt(10),
		}
	}
	return out
}

func render(t *testing.T, l []types.LotSummary, meta types.POMetadata) []byte {
	t.Helper()
	var buf bytes.Buffer
	err := Render(&buf, l, meta, Options{
		CompanyLines: []string{"Book For Less LLC", "P.O. Box 344"},
		Now:          fixedNow,
	})
	require.NoError(t, err)
	return buf.Bytes()
}

func pageCount(t *testing.T, b []byte) int {
	t.Helper()
	r, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	require.NoError(t, err)
	return r.NumPage()
}

func TestCapacity(t *testing.T) {
	assert.Equal(t, 31, Capacity(16))
	assert.Equal(t, 1, Capacity(1000))
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name string
		lots int
		want []Page
	}{
		{name: "empty table", lots: 0, want: []Page{{0, 0, true}}},
		{name: "fits with totals", lots: 30, want: []Page{{0, 30, true}}},
		{name: "full page pushes totals", lots: 31, want: []Page{{0, 31, false}, {31, 31, true}}},
		{name: "spills over", lots: 40, want: []Page{{0, 31, false}, {31, 40, true}}},
		{name: "two full pages", lots: 62, want: []Page{{0, 31, false}, {31, 62, false}, {62, 62, true}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Paginate(tt.lots, 31))
		})
	}
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$1,234.56", FormatMoney(decimal.RequireFromString("1234.555")))
	assert.Equal(t, "$0.00", FormatMoney(decimal.Zero))
	assert.Equal(t, "-$5.10", FormatMoney(decimal.RequireFromString("-5.1")))
}

func TestTruncateDescription(t *testing.T) {
	long := strings.Repeat("a", 45)
	assert.Equal(t, strings.Repeat("a", 40)+"...", TruncateDescription(long))
	assert.Equal(t, "short", TruncateDescription("short"))
	assert.Equal(t, strings.Repeat("é", 40), TruncateDescription(strings.Repeat("é", 40)))
}

func TestRender_SinglePage(t *testing.T) {
	meta := types.POMetadata{PurchaseInfo: "PO-77", OrderDate: "2024-03-01", SellerName: "Acme"}
	b := render(t, lots(3), meta)

	assert.True(t, bytes.HasPrefix(b, []byte("%PDF-")))
	assert.Equal(t, 1, pageCount(t, b))
	assert.Equal(t, 1, bytes.Count(b, []byte("(TOTAL:)")))
	assert.True(t, bytes.Contains(b, []byte("(Book For Less LLC)")))
	assert.True(t, bytes.Contains(b, []byte("(PO-77)")))
	assert.True(t, bytes.Contains(b, []byte("(03/01/2024)")))
	assert.True(t, bytes.Contains(b, []byte("(Generated on: 03/05/2024 14:07)")))
	assert.True(t, bytes.Contains(b, []byte("(Page 1 of 1)")))
	assert.True(t, bytes.Contains(b, []byte("($30.00)")))
}

func TestRender_TotalsOnlyOnLastPage(t *testing.T) {
	b := render(t, lots(31), types.POMetadata{})

	assert.Equal(t, 2, pageCount(t, b))
	assert.Equal(t, 1, bytes.Count(b, []byte("(TOTAL:)")))
	assert.True(t, bytes.Contains(b, []byte("(Page 2 of 2)")))
	assert.Equal(t, 2, bytes.Count(b, []byte("(Ext. Price)")))
}

func TestRender_EmptyTable(t *testing.T) {
	b := render(t, nil, types.POMetadata{})

	assert.Equal(t, 1, pageCount(t, b))
	assert.True(t, bytes.Contains(b, []byte("(TOTAL:)")))
	assert.True(t, bytes.Contains(b, []byte("($0.00)")))
	assert.True(t, bytes.Contains(b, []byte("(N/A)")))
}

func TestRender_BlankMetadataShowsNA(t *testing.T) {
	b := render(t, lots(1), types.POMetadata{SellerName: "Acme"})

	// purchase order, date, shipping method, payment terms
	assert.Equal(t, 4, bytes.Count(b, []byte("(N/A)")))

	b = render(t, lots(1), types.POMetadata{PurchaseInfo: "PO-1", ShippingMethod: "Freight", PaymentTerms: "Net 30"})
	assert.Equal(t, 1, bytes.Count(b, []byte("(N/A)")))
	assert.True(t, bytes.Contains(b, []byte("(Freight)")))
	assert.True(t, bytes.Contains(b, []byte("(Net 30)")))
}

func TestRender_LongItemNumberIsNotClipped(t *testing.T) {
	const id = "PALLET-2024-000123456789-XL"
	l := []types.LotSummary{{LotID: id, Description: "Lot", Quantity: 2, LineTotal: decimal.NewFromInt(4)}}

	b := render(t, l, types.POMetadata{})

	assert.True(t, bytes.Contains(b, []byte("("+id+")")))
	assert.False(t, bytes.Contains(b, []byte("...")))
}

func TestRender_Compressed(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, lots(5), types.POMetadata{}, Options{Compress: true, Now: fixedNow})
	require.NoError(t, err)

	b := buf.Bytes()
	assert.False(t, bytes.Contains(b, []byte("(TOTAL:)")))
	assert.Equal(t, 1, pageCount(t, b))
}
