// =============================================================================
// Pre-Alert Engine - Shared Types
// =============================================================================
//
// This package holds the raw tabular form shared by the file parsers and the
// loader, so neither parser has to import the other:
//   - csvparser  -> Table
//   - xlsxparser -> Table
//   - loader     -> Table -> shipment.Collection
//
// =============================================================================

package types

import (
	"strconv"
	"strings"
)

// =============================================================================
// TABLE TYPES
// =============================================================================

// Table is a parsed source file: merged headers and the non-empty data rows.
type Table struct {
	// SourceFile is the path the table was read from.
	SourceFile string

	// Sheet is the worksheet name for XLSX sources.
	Sheet string

	// Headers are the cleaned, merged column headers in source order.
	Headers []string

	// Rows are the data rows in source order.
	Rows []Row
}

// Row is one data row keyed by header.
type Row struct {
	// Number is the 1-based row (or line) number in the source, for error
	// reporting.
	Number int

	// Values maps header -> trimmed cell value. Missing cells are "".
	Values map[string]string
}

// HasHeader reports whether the table has a column with this header.
func (t *Table) HasHeader(header string) bool {
	for _, h := range t.Headers {
		if h == header {
			return true
		}
	}
	return false
}

// FilterRows returns the rows for which keep returns true.
func (t *Table) FilterRows(keep func(row Row) bool) []Row {
	filtered := make([]Row, 0)
	for _, row := range t.Rows {
		if keep(row) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

// MergeHeaders merges multi-row headers column by column, joining the
// non-empty parts with a space, and fills blank headers with "Column_N".
//
//	Row 1: "Total Price", "",    "Unit"
//	Row 2: "(USD)",       "QTY", "Price"
//	->     "Total Price (USD)", "QTY", "Unit Price"
func MergeHeaders(headerRows [][]string) []string {
	maxCols := 0
	for _, row := range headerRows {
		maxCols = max(maxCols, len(row))
	}

	headers := make([]string, maxCols)
	for col := 0; col < maxCols; col++ {
		parts := make([]string, 0, len(headerRows))
		for _, row := range headerRows {
			if col < len(row) {
				if value := strings.TrimSpace(row[col]); value != "" {
					parts = append(parts, value)
				}
			}
		}
		headers[col] = strings.Join(parts, " ")
		if headers[col] == "" {
			headers[col] = "Column_" + strconv.Itoa(col+1)
		}
	}
	return headers
}

// IsRowEmpty reports whether every cell is blank.
func IsRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// NewRow builds a Row from positional cells. Extra cells beyond the headers
// are dropped; missing cells become "".
func NewRow(number int, headers, cells []string) Row {
	values := make(map[string]string, len(headers))
	for i, header := range headers {
		if i < len(cells) {
			values[header] = strings.TrimSpace(cells[i])
		} else {
			values[header] = ""
		}
	}
	return Row{Number: number, Values: values}
}
