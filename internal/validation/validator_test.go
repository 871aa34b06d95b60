package validation

import (
	"errors"
	"testing"

	"github.com/CaessarCZX/ERP-Books4less-BE/internal/numeric"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnsFor(t *testing.T) {
	cols, err := ColumnsFor("")
	require.NoError(t, err)
	assert.Len(t, cols, 6)

	cols, err = ColumnsFor("FULL")
	require.NoError(t, err)
	assert.Len(t, cols, 14)

	_, err = ColumnsFor("medium")
	assert.Error(t, err)
}

func TestRequireColumns(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		missing []string
	}{
		{
			name:    "all present in another order",
			columns: []string{"quantity", "us_price", "item_desc", "item_id", "pallet_id", "series_desc", "extra"},
		},
		{
			name:    "two missing reported in contract order",
			columns: []string{"item_id", "item_desc", "series_desc", "pallet_id"},
			missing: []string{"us_price", "quantity"},
		},
		{
			name:    "nothing present",
			columns: nil,
			missing: MinimalColumns,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequireColumns(tt.columns, MinimalColumns)
			if tt.missing == nil {
				assert.NoError(t, err)
				return
			}
			var mce *MissingColumnsError
			require.True(t, errors.As(err, &mce))
			assert.Equal(t, tt.missing, mce.Missing)
		})
	}
}

func TestRequireNumeric(t *testing.T) {
	table := &types.Table{
		Columns: []string{"quantity", "us_price"},
		Rows: []types.Row{
			{"quantity": "3", "us_price": "$9.99"},
			{"quantity": "", "us_price": "1,000"},
		},
	}
	assert.NoError(t, RequireNumeric(table, "quantity", "us_price", "absent"))

	table.Rows = append(table.Rows, types.Row{"quantity": "three", "us_price": "1"})
	err := RequireNumeric(table, "quantity", "us_price")

	var pe *numeric.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "quantity", pe.Column)
	assert.Equal(t, 2, pe.Index)
}
