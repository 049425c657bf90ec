// =============================================================================
// Pre-Alert Engine - XLSX Parser
// =============================================================================
//
// This module reads two kinds of workbooks:
//   1. Line-item sheets exported by the carrier / forwarder portals
//      (Parse, ParseReader) -> types.Table
//   2. Column-mapping templates that tell the loader which source column
//      feeds which line-item field (ParseMappingTemplate)
//
// =============================================================================

package xlsxparser

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/prealert-engine/internal/config"
	"github.com/ginjaninja78/prealert-engine/internal/types"
)

// =============================================================================
// LINE-ITEM SHEETS
// =============================================================================

// Parse reads the line-item sheet of a workbook.
//
// PARAMETERS:
//   - filePath: The path to the XLSX file.
//   - settings: Sheet name and header / data rows from the dataset config.
//
// RETURNS:
//   - The parsed table. Empty rows are skipped.
//   - An error if the file or sheet cannot be read.
func Parse(filePath string, settings config.XLSXSettings) (*types.Table, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, eris.Wrap(err, "failed to open workbook")
	}
	defer f.Close()

	table, err := parseSheet(f, settings)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to parse %s", filePath)
	}
	table.SourceFile = filePath
	return table, nil
}

// ParseReader reads the line-item sheet of a workbook held in r.
func ParseReader(r io.Reader, settings config.XLSXSettings) (*types.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, eris.Wrap(err, "failed to open workbook")
	}
	defer f.Close()

	return parseSheet(f, settings)
}

func parseSheet(f *excelize.File, settings config.XLSXSettings) (*types.Table, error) {
	sheet := settings.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, eris.New("workbook has no sheets")
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, eris.Errorf("sheet %q not found", sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, eris.Wrap(err, "failed to read rows")
	}

	headerRow := max(settings.HeaderRow, 1)
	dataStart := settings.DataStartRow
	if dataStart <= headerRow {
		dataStart = headerRow + 1
	}
	if len(rows) < headerRow {
		return nil, eris.Errorf("sheet %q has no header row %d", sheet, headerRow)
	}

	table := &types.Table{
		Sheet:   sheet,
		Headers: types.MergeHeaders([][]string{rows[headerRow-1]}),
		Rows:    make([]types.Row, 0, len(rows)),
	}

	for i := dataStart - 1; i < len(rows); i++ {
		if types.IsRowEmpty(rows[i]) {
			continue
		}
		table.Rows = append(table.Rows, types.NewRow(i+1, table.Headers, rows[i]))
	}

	return table, nil
}
