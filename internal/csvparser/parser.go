// =============================================================================
// Purchase Order Consolidator - CSV Parser Module
// =============================================================================
//
// This module is responsible for parsing uploaded purchase-order CSV files.
// Vendors export these files from very different systems, so the parser has
// to cope with:
//   - Comma or semicolon delimiters (sniffed from a prefix of the file)
//   - A UTF-8 byte order mark left by spreadsheet exports
//   - Legacy single-byte encodings (Windows-1252, ISO-8859-1)
//   - Ragged rows and sloppy quoting
//
// HEADER NORMALIZATION:
//   Headers are trimmed and lower-cased exactly once, here. Every downstream
//   module looks columns up by the normalized name.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/CaessarCZX/ERP-Books4less-BE/internal/config"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// utf8BOM is stripped from the start of UTF-8 input.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// =============================================================================
// CSV DATA STRUCTURE
// =============================================================================

// CSVData represents the parsed CSV file.
type CSVData struct {
	// Headers contains the normalized, de-duplicated column headers.
	Headers []string

	// Rows contains the data rows as maps of header -> value.
	Rows []map[string]string

	// Delimiter is the field separator that was used.
	Delimiter rune

	// RowCount is the total number of non-empty data rows.
	RowCount int
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads CSV content and returns the parsed data.
//
// PARAMETERS:
//   - r: The raw file content.
//   - settings: The CSV parsing settings from the main configuration.
//
// RETURNS:
//   - A pointer to the CSVData struct containing the parsed data.
//   - An error if the content cannot be decoded or parsed.
//
// PARSING PROCESS:
//   1. Decode the configured character encoding to UTF-8
//   2. Drop a leading UTF-8 byte order mark
//   3. Sniff the delimiter from the first settings.SampleSize bytes
//   4. Read the header row and normalize it
//   5. Convert each non-empty data row to a map of header -> value
func Parse(r io.Reader, settings config.CSVSettings) (*CSVData, error) {
	dec, err := decoderFor(settings.Encoding)
	if err != nil {
		return nil, err
	}
	if dec != nil {
		r = transform.NewReader(r, dec.NewDecoder())
	}

	sampleSize := settings.SampleSize
	if sampleSize <= 0 {
		sampleSize = config.DefaultSampleSize
	}
	reader := bufio.NewReaderSize(r, max(sampleSize, 4096))

	if bom, _ := reader.Peek(len(utf8BOM)); bytes.Equal(bom, utf8BOM) {
		if _, err := reader.Discard(len(utf8BOM)); err != nil {
			return nil, fmt.Errorf("failed to skip byte order mark: %w", err)
		}
	}

	delimiter, err := resolveDelimiter(reader, settings.Delimiter, sampleSize)
	if err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(reader)
	configureReader(csvReader, delimiter)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if len(allRows) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	headers, keep := NormalizeHeaders(allRows[0])
	dataRows := extractDataRows(allRows[1:], headers, keep)

	return &CSVData{
		Headers:   DistinctHeaders(headers, keep),
		Rows:      dataRows,
		Delimiter: delimiter,
		RowCount:  len(dataRows),
	}, nil
}

// SniffDelimiter picks the field separator for a sample of the file: a comma
// if one appears anywhere in the sample, otherwise a semicolon.
func SniffDelimiter(sample []byte) rune {
	if bytes.IndexByte(sample, ',') >= 0 {
		return ','
	}
	return ';'
}

// resolveDelimiter honours an explicit delimiter setting and otherwise sniffs
// one from the buffered prefix without consuming it.
func resolveDelimiter(reader *bufio.Reader, setting string, sampleSize int) (rune, error) {
	switch strings.ToLower(setting) {
	case "", "auto":
	case "\\t", "tab":
		return '\t', nil
	case ";", "semicolon":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	default:
		return rune(setting[0]), nil
	}

	sample, err := reader.Peek(sampleSize)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("failed to sample CSV content: %w", err)
	}
	return SniffDelimiter(sample), nil
}

// decoderFor returns the decoder for a configured encoding name, or nil for
// UTF-8 input.
func decoderFor(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", "-")) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1, nil
	case "iso-8859-15", "latin9":
		return charmap.ISO8859_15, nil
	default:
		return nil, fmt.Errorf("unsupported CSV encoding %q", name)
	}
}

// configureReader configures the CSV reader for loosely formatted exports.
func configureReader(reader *csv.Reader, delimiter rune) {
	reader.Comma = delimiter

	// Allow variable number of fields per row.
	reader.FieldsPerRecord = -1

	// Allow lazy quotes (quotes that don't follow strict CSV rules).
	reader.LazyQuotes = true

	reader.TrimLeadingSpace = true
}

// NormalizeHeaders trims and lower-cases raw headers. An empty header becomes
// column_<n>. When a name repeats, the first column wins and keep[i] is false
// for the later ones.
func NormalizeHeaders(raw []string) (headers []string, keep []bool) {
	seen := make(map[string]bool, len(raw))
	headers = make([]string, len(raw))
	keep = make([]bool, len(raw))

	for i, header := range raw {
		header = strings.ToLower(strings.TrimSpace(header))
		if header == "" {
			header = fmt.Sprintf("column_%d", i+1)
		}
		headers[i] = header
		if !seen[header] {
			seen[header] = true
			keep[i] = true
		}
	}

	return headers, keep
}

// DistinctHeaders returns the headers flagged by keep, in order.
func DistinctHeaders(headers []string, keep []bool) []string {
	out := make([]string, 0, len(headers))
	for i, h := range headers {
		if keep[i] {
			out = append(out, h)
		}
	}
	return out
}

// extractDataRows converts the data rows to maps, skipping empty rows and
// duplicate columns.
func extractDataRows(rows [][]string, headers []string, keep []bool) []map[string]string {
	dataRows := make([]map[string]string, 0, len(rows))

	for _, row := range rows {
		if IsRowEmpty(row) {
			continue
		}

		rowMap := make(map[string]string, len(headers))
		for colIndex, header := range headers {
			if !keep[colIndex] {
				continue
			}
			if colIndex < len(row) {
				rowMap[header] = strings.TrimSpace(row[colIndex])
			} else {
				// Column is missing in this row.
				rowMap[header] = ""
			}
		}

		dataRows = append(dataRows, rowMap)
	}

	return dataRows
}

// IsRowEmpty checks if a row contains only empty values.
func IsRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
