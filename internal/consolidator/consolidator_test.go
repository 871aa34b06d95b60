package consolidator

import (
	"errors"
	"testing"

	"github.com/CaessarCZX/ERP-Books4less-BE/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsolidate(t *testing.T) {
	a := &types.Table{
		SourceFile: "a.csv",
		Columns:    []string{"item_id", "quantity"},
		Rows:       []types.Row{{"item_id": "1", "quantity": "2"}, {"item_id": "2", "quantity": "1"}},
	}
	b := &types.Table{
		SourceFile: "b.xlsx",
		Columns:    []string{"quantity", "item_id", "item_desc"},
		Rows:       []types.Row{{"item_id": "1", "quantity": "5", "item_desc": "x"}},
	}

	got, err := Consolidate([]*types.Table{a, b}, nil)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "a.csv", got[0].SourceFile)
	assert.Equal(t, "1", got[0].Get("item_id"))
	assert.Equal(t, "a.csv", got[1].SourceFile)
	assert.Equal(t, "2", got[1].Get("item_id"))
	assert.Equal(t, "b.xlsx", got[2].SourceFile)
	assert.Equal(t, "1", got[2].Get("item_id"), "duplicate identifiers are kept")
	assert.Nil(t, got[2].Derived)

	assert.Equal(t, []string{"item_id", "quantity", "item_desc"}, Columns([]*types.Table{a, b}))
}

func TestConsolidate_NoTables(t *testing.T) {
	failures := []types.FileError{{File: "x.txt", Err: errors.New("unsupported")}}

	_, err := Consolidate(nil, failures)

	var nve *NoValidFilesError
	require.True(t, errors.As(err, &nve))
	assert.Equal(t, failures, nve.Details)
	assert.Contains(t, err.Error(), "x.txt: unsupported")

	_, err = Consolidate(nil, nil)
	require.True(t, errors.As(err, &nve))
	assert.Equal(t, "no valid files to process", err.Error())
}
