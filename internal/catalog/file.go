package catalog

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/CaessarCZX/ERP-Books4less-BE/internal/config"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/ingest"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/types"
)

// Reference sheet columns, after header normalization.
const (
	ColumnItemNumber  = "no."
	ColumnDescription = "description"
)

// ReadEntries parses a reference sheet with "No." and "Description"
// columns. Values are trimmed; rows without an item number are skipped.
func ReadEntries(name string, content []byte, ext string, csv config.CSVSettings) ([]types.CatalogEntry, error) {
	table, err := ingest.ReadFile(name, content, ext, ingest.Options{
		CSV:      csv,
		Required: []string{ColumnItemNumber, ColumnDescription},
	})
	if err != nil {
		return nil, err
	}

	entries := make([]types.CatalogEntry, 0, len(table.Rows))
	for _, row := range table.Rows {
		id := strings.TrimSpace(row[ColumnItemNumber])
		if id == "" {
			continue
		}
		entries = append(entries, types.CatalogEntry{
			ItemNumber:  id,
			Description: strings.TrimSpace(row[ColumnDescription]),
		})
	}
	return entries, nil
}

// FileCatalog serves a reference sheet from disk. The file is re-read on
// every Entries call and the scope is ignored.
type FileCatalog struct {
	path string
	csv  config.CSVSettings
}

// NewFileCatalog returns a catalog backed by the sheet at path.
func NewFileCatalog(path string, csv config.CSVSettings) *FileCatalog {
	return &FileCatalog{path: path, csv: csv}
}

// Entries yields the sheet's entries.
func (f *FileCatalog) Entries(ctx context.Context, _ string) iter.Seq2[types.CatalogEntry, error] {
	return func(yield func(types.CatalogEntry, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(types.CatalogEntry{}, err)
			return
		}
		content, err := os.ReadFile(f.path)
		if err != nil {
			yield(types.CatalogEntry{}, fmt.Errorf("failed to read reference file: %w", err))
			return
		}
		entries, err := ReadEntries(filepath.Base(f.path), content, filepath.Ext(f.path), f.csv)
		if err != nil {
			yield(types.CatalogEntry{}, err)
			return
		}
		for _, e := range entries {
			if !yield(e, nil) {
				return
			}
		}
	}
}

// Replace always fails with ErrReadOnly.
func (f *FileCatalog) Replace(context.Context, string, []types.CatalogEntry) (int, error) {
	return 0, ErrReadOnly
}

// Close is a no-op.
func (f *FileCatalog) Close() error { return nil }
