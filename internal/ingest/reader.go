// Package ingest turns an uploaded file into a types.Table.
//
// The declared extension is resolved once into a types.FileFormat; CSV content
// goes through csvparser and spreadsheets through xlsxparser. Both paths hand
// back lower-cased, trimmed column names, so nothing downstream re-normalizes.
package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/CaessarCZX/ERP-Books4less-BE/internal/config"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/csvparser"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/types"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/validation"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/xlsxparser"
)

// UnsupportedFormatError is returned for any extension other than csv/xlsx.
type UnsupportedFormatError struct {
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format %q: only csv and xlsx are accepted", e.Extension)
}

// Options controls how a file is read.
type Options struct {
	CSV config.CSVSettings

	// Required is the column contract checked after parsing. Nil skips it.
	Required []string

	// NumericColumns are checked cell by cell when StrictNumeric is set.
	NumericColumns []string
	StrictNumeric  bool
}

// DetectFormat resolves a declared extension ("csv", ".XLSX", ...).
func DetectFormat(ext string) (types.FileFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), ".")) {
	case "csv":
		return types.FormatCSV, nil
	case "xlsx":
		return types.FormatSpreadsheet, nil
	default:
		return types.FormatUnknown, &UnsupportedFormatError{Extension: ext}
	}
}

// Read parses content according to format and checks the column contract.
func Read(name string, content []byte, format types.FileFormat, opts Options) (*types.Table, error) {
	table := &types.Table{SourceFile: name, Format: format}

	var rows []map[string]string
	switch format {
	case types.FormatCSV:
		data, err := csvparser.Parse(bytes.NewReader(content), opts.CSV)
		if err != nil {
			return nil, err
		}
		table.Columns, rows = data.Headers, data.Rows
	case types.FormatSpreadsheet:
		data, err := xlsxparser.Parse(bytes.NewReader(content))
		if err != nil {
			return nil, err
		}
		table.Columns, rows = data.Headers, data.Rows
	default:
		return nil, &UnsupportedFormatError{Extension: format.String()}
	}

	table.Rows = make([]types.Row, len(rows))
	for i, r := range rows {
		table.Rows[i] = types.Row(r)
	}

	if opts.Required != nil {
		if err := validation.RequireColumns(table.Columns, opts.Required); err != nil {
			return nil, err
		}
	}
	if opts.StrictNumeric {
		if err := validation.RequireNumeric(table, opts.NumericColumns...); err != nil {
			return nil, err
		}
	}

	return table, nil
}

// ReadFile is DetectFormat followed by Read.
func ReadFile(name string, content []byte, ext string, opts Options) (*types.Table, error) {
	format, err := DetectFormat(ext)
	if err != nil {
		return nil, err
	}
	return Read(name, content, format, opts)
}
