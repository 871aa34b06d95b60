// =============================================================================
// Purchase Order Consolidator - XLSX Parser
// =============================================================================
//
// This module reads uploaded purchase-order workbooks and writes the
// consolidated workbook export.
//
// READING:
//   Only the first sheet of a workbook is read. Cells are returned as their
//   raw stored value (no number formats applied), so an item number stored as
//   the number 12 reads as "12" rather than "12.00" or "$12".
//
// WRITING:
//   WriteWorkbook streams a header row plus data rows into a single sheet.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"io"
	"strings"

	"github.com/CaessarCZX/ERP-Books4less-BE/internal/csvparser"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// SHEET STRUCTURE
// =============================================================================

// SheetData represents the first sheet of a parsed workbook.
type SheetData struct {
	// SheetName is the name of the sheet that was read.
	SheetName string

	// Headers contains the normalized, de-duplicated column headers.
	Headers []string

	// Rows contains the data rows as maps of header -> value.
	Rows []map[string]string
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a workbook and returns the content of its first sheet.
//
// PARAMETERS:
//   - r: The workbook content.
//
// RETURNS:
//   - A pointer to the SheetData struct.
//   - An error if the content is not a readable workbook or has no sheets.
func Parse(r io.Reader) (*SheetData, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	// Only the first sheet carries line items.
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	// Leading blank rows are skipped to find the header.
	start := 0
	for start < len(rows) && csvparser.IsRowEmpty(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, fmt.Errorf("sheet %q is empty", sheetName)
	}

	headers, keep := csvparser.NormalizeHeaders(rows[start])
	data := &SheetData{
		SheetName: sheetName,
		Headers:   csvparser.DistinctHeaders(headers, keep),
		Rows:      make([]map[string]string, 0, len(rows)-start-1),
	}

	for _, row := range rows[start+1:] {
		if csvparser.IsRowEmpty(row) {
			continue
		}

		rowMap := make(map[string]string, len(data.Headers))
		for i, header := range headers {
			if !keep[i] {
				continue
			}
			value := ""
			if i < len(row) {
				value = strings.TrimSpace(row[i])
			}
			rowMap[header] = value
		}
		data.Rows = append(data.Rows, rowMap)
	}

	return data, nil
}

// =============================================================================
// WORKBOOK EXPORT
// =============================================================================

// WriteWorkbook writes a single-sheet workbook to w.
//
// PARAMETERS:
//   - w: Destination of the .xlsx bytes.
//   - sheet: Name of the sheet to create.
//   - header: The header row.
//   - rows: Data rows; values may be strings or numbers.
func WriteWorkbook(w io.Writer, sheet string, header []string, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}

	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := sw.SetRow("A1", headerRow); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
