package xlsxparser

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/prealert-engine/internal/config"
	"github.com/ginjaninja78/prealert-engine/internal/shipment"
	"github.com/ginjaninja78/prealert-engine/internal/types"
)

// =============================================================================
// MAPPING TEMPLATES
// =============================================================================
//
// TEMPLATE STRUCTURE (Expected Columns):
//
//   | Column A      | Column B    | Column C  | Column D   | Column E  |
//   |---------------|-------------|-----------|------------|-----------|
//   | Source Header | Field       | Data Type | Max Length | Required  |
//   | DN No         | dnNo        | string    | 10         | required  |
//   | QTY           | qty         | integer   |            | required  |
//   | Unit Price    | unitPrice   | decimal   |            | required  |
//   | COO           | coo         | alpha     | 2          | optional  |
//
// Column positions are configurable via TemplateColumns.

// TemplateColumns holds the 0-based column positions of a mapping template.
type TemplateColumns struct {
	HeaderColumn    int
	FieldColumn     int
	DataTypeColumn  int
	MaxLengthColumn int
	RequiredColumn  int

	// DataStartRow is the 0-based first data row. Default: 1 (Row 2)
	DataStartRow int
}

// DefaultTemplateColumns returns the A..E layout shown above.
func DefaultTemplateColumns() TemplateColumns {
	return TemplateColumns{
		HeaderColumn:    0, // Column A
		FieldColumn:     1, // Column B
		DataTypeColumn:  2, // Column C
		MaxLengthColumn: 3, // Column D
		RequiredColumn:  4, // Column E
		DataStartRow:    1, // Row 2
	}
}

// ParseMappingTemplate reads the first sheet of a mapping template.
func ParseMappingTemplate(templatePath string) ([]config.ColumnMapping, error) {
	return ParseMappingTemplateWithColumns(templatePath, DefaultTemplateColumns())
}

// ParseMappingTemplateWithColumns reads a mapping template with a custom
// column layout. Rows without a source header are skipped; an unknown field
// name fails the whole template.
func ParseMappingTemplateWithColumns(templatePath string, columns TemplateColumns) ([]config.ColumnMapping, error) {
	f, err := excelize.OpenFile(templatePath)
	if err != nil {
		return nil, eris.Wrap(err, "failed to open template file")
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, eris.New("template file has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, eris.Wrap(err, "failed to read rows")
	}

	mappings := make([]config.ColumnMapping, 0, len(rows))
	for i := columns.DataStartRow; i < len(rows); i++ {
		row := rows[i]
		if types.IsRowEmpty(row) {
			continue
		}

		mapping, err := parseTemplateRow(row, columns)
		if err != nil {
			return nil, eris.Wrapf(err, "error parsing row %d", i+1)
		}
		if mapping.Header == "" {
			continue
		}
		mappings = append(mappings, mapping)
	}

	return mappings, nil
}

func parseTemplateRow(row []string, columns TemplateColumns) (config.ColumnMapping, error) {
	cell := func(index int) string {
		if index >= 0 && index < len(row) {
			return strings.TrimSpace(row[index])
		}
		return ""
	}

	mapping := config.ColumnMapping{
		Header:   cell(columns.HeaderColumn),
		DataType: NormalizeDataType(cell(columns.DataTypeColumn)),
		Required: normalizeRequired(cell(columns.RequiredColumn)),
	}
	if mapping.Header == "" {
		return mapping, nil
	}

	field, err := shipment.ParseField(cell(columns.FieldColumn))
	if err != nil {
		return mapping, err
	}
	mapping.Field = string(field)

	if raw := cell(columns.MaxLengthColumn); raw != "" {
		// A non-numeric limit is treated as no limit.
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			mapping.MaxLength = n
		}
	}

	return mapping, nil
}

// normalizeRequired maps template wording to a flag.
func normalizeRequired(value string) bool {
	switch strings.ToLower(value) {
	case "required", "req", "r", "yes", "y", "true", "1", "mandatory":
		return true
	default:
		return false
	}
}

// NormalizeDataType maps template wording to a loader data type:
// "string", "integer", "decimal", "alphanumeric" or "alpha". Unknown or
// empty values yield "" (the field's natural type).
func NormalizeDataType(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "string", "str", "text", "varchar":
		return "string"
	case "numeric", "num", "number", "int", "integer":
		return "integer"
	case "decimal", "dec", "float", "double", "money", "currency":
		return "decimal"
	case "alphanumeric", "alphanum", "an":
		return "alphanumeric"
	case "alpha", "a", "letters":
		return "alpha"
	default:
		return ""
	}
}
