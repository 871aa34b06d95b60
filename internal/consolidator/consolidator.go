// Package consolidator merges the tables of one request into a single ordered
// row sequence.
package consolidator

import (
	"fmt"
	"strings"

	"github.com/CaessarCZX/ERP-Books4less-BE/internal/types"
)

// NoValidFilesError means no input file survived parsing. Details carries the
// per-file failures, if any.
type NoValidFilesError struct {
	Details []types.FileError
}

func (e *NoValidFilesError) Error() string {
	if len(e.Details) == 0 {
		return "no valid files to process"
	}
	msgs := make([]string, len(e.Details))
	for i, d := range e.Details {
		msgs[i] = d.Error()
	}
	return fmt.Sprintf("no valid files to process: %s", strings.Join(msgs, "; "))
}

// Consolidate concatenates tables in arrival order, keeping row order within
// each file and tagging every row with its source file. Rows are never
// deduplicated. failures is only used to build the error when tables is empty.
func Consolidate(tables []*types.Table, failures []types.FileError) ([]types.ConsolidatedRow, error) {
	if len(tables) == 0 {
		return nil, &NoValidFilesError{Details: failures}
	}

	total := 0
	for _, t := range tables {
		total += len(t.Rows)
	}

	rows := make([]types.ConsolidatedRow, 0, total)
	for _, t := range tables {
		for _, r := range t.Rows {
			rows = append(rows, types.ConsolidatedRow{Row: r, SourceFile: t.SourceFile})
		}
	}
	return rows, nil
}

// Columns returns the union of the tables' columns in first-seen order.
func Columns(tables []*types.Table) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range tables {
		for _, c := range t.Columns {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}
