// =============================================================================
// Pre-Alert Engine - XLSX Reports
// =============================================================================
//
// This module writes the workbooks handed to the customs broker:
//   1. Shipment workbook: one sheet per shipment (MAWB) with a totals row
//   2. Mismatch workbook: the 810 manifest against the pre-alert submission,
//      with every flagged cell filled red
//
// Text cells are sanitized against formula injection. Money cells are
// numeric with a "#,##0.00" format so totals stay summable in Excel.
//
// =============================================================================

package xlsxreport

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/prealert-engine/internal/mismatch"
	"github.com/ginjaninja78/prealert-engine/internal/shipment"
	"github.com/ginjaninja78/prealert-engine/internal/summary"
)

// maxSheetName is Excel's sheet name limit.
const maxSheetName = 31

// Shipment is one sheet of the shipment workbook.
type Shipment struct {
	// ID is the MAWB number, also used as the sheet name.
	ID        string
	Direction string
	Items     shipment.Collection
}

// column describes one line-item column.
type column struct {
	header string
	field  shipment.Field
	width  float64
}

var itemColumns = []column{
	{"ID", shipment.FieldID, 10},
	{"DN No", shipment.FieldDocumentNumber, 14},
	{"Part No", shipment.FieldPartNumber, 12},
	{"Product Name", shipment.FieldProductName, 34},
	{"COO", shipment.FieldCountryOfOrigin, 6},
	{"HS Code", shipment.FieldHarmonizedCode, 14},
	{"QTY", shipment.FieldQuantity, 8},
	{"Unit Price", shipment.FieldUnitPrice, 12},
	{"Total Price (USD)", shipment.FieldTotalPriceUSD, 16},
	{"Total Price (SAR)", shipment.FieldTotalPriceSAR, 16},
}

// =============================================================================
// SHIPMENT WORKBOOK
// =============================================================================

// GenerateShipments creates a workbook with one sheet per shipment.
//
// SHEET LAYOUT:
//
//	Row 1: title (dataset or source name)
//	Row 2: MAWB and direction
//	Row 4: column headers
//	Row 5+: line items
//	last:  totals row (QTY, USD, SAR)
func GenerateShipments(title string, shipments []Shipment) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	if len(shipments) == 0 {
		shipments = []Shipment{{ID: "Shipment"}}
	}

	used := make(map[string]bool)
	for i, s := range shipments {
		name := uniqueSheetName(s.ID, used)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return nil, eris.Wrap(err, "set sheet name")
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, eris.Wrapf(err, "create sheet %s", name)
		}

		if err := writeShipmentSheet(f, name, title, s, st); err != nil {
			return nil, err
		}
	}

	return writeWorkbook(f)
}

func writeShipmentSheet(f *excelize.File, sheet, title string, s Shipment, st *styles) error {
	w := &sheetWriter{f: f, sheet: sheet}
	lastCol := len(itemColumns) + 1

	w.setWidth(1, 6)
	for i, c := range itemColumns {
		w.setWidth(i+2, c.width)
	}

	w.set(1, 1, sanitizeExcelCell(title))
	w.style(1, 1, 1, 1, st.title)
	subtitle := "MAWB: " + s.ID
	if s.Direction != "" {
		subtitle += "  |  " + s.Direction
	}
	w.set(1, 2, sanitizeExcelCell(subtitle))
	w.style(1, 2, 1, 2, st.subtitle)

	headerRow := 4
	w.set(1, headerRow, "#")
	for i, c := range itemColumns {
		w.set(i+2, headerRow, c.header)
	}
	w.style(1, headerRow, lastCol, headerRow, st.header)

	row := headerRow + 1
	for i, item := range s.Items {
		w.set(1, row, i+1)
		for j, c := range itemColumns {
			w.setValue(j+2, row, c.field, item.Value(c.field))
		}
		w.style(1, row, lastCol, row, st.cell)
		w.styleMoney(row, st.money)
		row++
	}

	// Totals come from the stored per-item totals, like the grid footer.
	totals := summary.Summarize(s.Items)
	w.set(2, row, "Total")
	w.set(colOf(shipment.FieldQuantity), row, totals.TotalQuantity)
	w.set(colOf(shipment.FieldTotalPriceUSD), row, totals.TotalPriceUSD)
	w.set(colOf(shipment.FieldTotalPriceSAR), row, totals.TotalPriceSAR)
	w.style(1, row, lastCol, row, st.total)
	w.style(colOf(shipment.FieldTotalPriceUSD), row, colOf(shipment.FieldTotalPriceSAR), row, st.totalMoney)

	return w.err
}

// =============================================================================
// MISMATCH WORKBOOK
// =============================================================================

// Mismatch is the input of the mismatch workbook.
type Mismatch struct {
	LeftName   string
	RightName  string
	Left       summary.Summary
	Right      summary.Summary
	Comparison *mismatch.Comparison
}

// GenerateMismatch creates the comparison workbook.
//
// SHEET "Mismatch":
//
//	One row per side of every compared pair, left row first. Flagged cells
//	on both rows are filled red. Unmatched items follow, labelled with the
//	side they came from.
//
// SHEET "Totals":
//
//	Summary of each side and the left-minus-right discrepancy.
func GenerateMismatch(m Mismatch) ([]byte, error) {
	c := m.Comparison
	if c == nil {
		return nil, eris.New("mismatch workbook has no comparison")
	}
	leftName, rightName := m.LeftName, m.RightName
	if leftName == "" {
		leftName = string(mismatch.SideLeft)
	}
	if rightName == "" {
		rightName = string(mismatch.SideRight)
	}

	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	const sheet = "Mismatch"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, eris.Wrap(err, "set sheet name")
	}

	w := &sheetWriter{f: f, sheet: sheet}
	lastCol := len(itemColumns) + 2

	w.setWidth(1, 6)
	w.setWidth(2, 12)
	for i, col := range itemColumns {
		w.setWidth(i+3, col.width)
	}

	w.set(1, 1, sanitizeExcelCell(leftName+" vs "+rightName))
	w.style(1, 1, 1, 1, st.title)
	w.set(1, 2, sanitizeExcelCell(reportSubtitle(c)))
	w.style(1, 2, 1, 2, st.subtitle)

	headerRow := 4
	w.set(1, headerRow, "#")
	w.set(2, headerRow, "Source")
	for i, col := range itemColumns {
		w.set(i+3, headerRow, col.header)
	}
	w.style(1, headerRow, lastCol, headerRow, st.header)

	row := headerRow + 1
	for i, r := range c.Results {
		for _, side := range []struct {
			name string
			item *shipment.LineItem
		}{{leftName, r.Left}, {rightName, r.Right}} {
			w.set(1, row, i+1)
			w.set(2, row, sanitizeExcelCell(side.name))
			w.style(1, row, lastCol, row, st.cell)
			for j, col := range itemColumns {
				if side.item != nil {
					w.setValue(j+3, row, col.field, side.item.Value(col.field))
				}
				if r.Has(col.field) {
					w.style(j+3, row, j+3, row, flaggedStyle(st, col.field))
				} else if isMoney(col.field) {
					w.style(j+3, row, j+3, row, st.money)
				}
			}
			row++
		}
	}

	for _, u := range c.Unmatched {
		name := leftName
		if u.Side == mismatch.SideRight {
			name = rightName
		}
		w.set(2, row, sanitizeExcelCell(name+" only"))
		for j, col := range itemColumns {
			w.setValue(j+3, row, col.field, u.Item.Value(col.field))
		}
		w.style(1, row, lastCol, row, st.unmatched)
		row++
	}

	if err := w.err; err != nil {
		return nil, err
	}

	if err := writeTotalsSheet(f, leftName, rightName, m.Left, m.Right, st); err != nil {
		return nil, err
	}

	return writeWorkbook(f)
}

func reportSubtitle(c *mismatch.Comparison) string {
	names := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		names[i] = string(f)
	}
	flagged := len(c.Flagged())
	return "Pairing: " + string(c.Pairing) +
		"  |  Fields: " + strings.Join(names, ", ") +
		"  |  Flagged pairs: " + strconv.Itoa(flagged) +
		"  |  Unmatched: " + strconv.Itoa(len(c.Unmatched))
}

func writeTotalsSheet(f *excelize.File, leftName, rightName string, left, right summary.Summary, st *styles) error {
	const sheet = "Totals"
	if _, err := f.NewSheet(sheet); err != nil {
		return eris.Wrap(err, "create totals sheet")
	}

	w := &sheetWriter{f: f, sheet: sheet}
	w.setWidth(1, 18)
	for col := 2; col <= 4; col++ {
		w.setWidth(col, 18)
	}

	w.set(2, 1, sanitizeExcelCell(leftName))
	w.set(3, 1, sanitizeExcelCell(rightName))
	w.set(4, 1, "Difference")
	w.style(1, 1, 4, 1, st.header)

	d := summary.Diff(left, right)
	rows := []struct {
		label       string
		l, r, delta interface{}
		money       bool
	}{
		{"Items", left.ItemCount, right.ItemCount, d.ItemCount, false},
		{"Total QTY", left.TotalQuantity, right.TotalQuantity, d.TotalQuantity, false},
		{"Total Price (USD)", left.TotalPriceUSD, right.TotalPriceUSD, d.TotalPriceUSD, true},
		{"Total Price (SAR)", left.TotalPriceSAR, right.TotalPriceSAR, d.TotalPriceSAR, true},
	}
	for i, r := range rows {
		row := i + 2
		w.set(1, row, r.label)
		w.set(2, row, r.l)
		w.set(3, row, r.r)
		w.set(4, row, r.delta)
		w.style(1, row, 4, row, st.cell)
		if r.money {
			w.style(2, row, 4, row, st.money)
		}
	}

	return w.err
}

// =============================================================================
// STYLES
// =============================================================================

type styles struct {
	title, subtitle, header int
	cell, money             int
	total, totalMoney       int
	flagged, flaggedMoney   int
	unmatched               int
}

func newStyles(f *excelize.File) (*styles, error) {
	moneyFormat := 4 // #,##0.00
	red := excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1}
	redFont := &excelize.Font{Color: "#9C0006", Bold: true, Size: 10}

	st := &styles{}
	defs := []struct {
		target *int
		style  *excelize.Style
	}{
		{&st.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}}},
		{&st.subtitle, &excelize.Style{Font: &excelize.Font{Size: 11}}},
		{&st.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
			Border:    thinBorders(),
		}},
		{&st.cell, &excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders()}},
		{&st.money, &excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders(), NumFmt: moneyFormat}},
		{&st.total, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 11}, Border: thinBorders()}},
		{&st.totalMoney, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 11}, Border: thinBorders(), NumFmt: moneyFormat}},
		{&st.flagged, &excelize.Style{Font: redFont, Fill: red, Border: thinBorders()}},
		{&st.flaggedMoney, &excelize.Style{Font: redFont, Fill: red, Border: thinBorders(), NumFmt: moneyFormat}},
		{&st.unmatched, &excelize.Style{Font: &excelize.Font{Italic: true, Color: "#7F7F7F", Size: 10}, Border: thinBorders()}},
	}

	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return nil, eris.Wrap(err, "create style")
		}
		*d.target = id
	}
	return st, nil
}

func flaggedStyle(st *styles, f shipment.Field) int {
	if isMoney(f) {
		return st.flaggedMoney
	}
	return st.flagged
}

func isMoney(f shipment.Field) bool {
	switch f {
	case shipment.FieldUnitPrice, shipment.FieldTotalPriceUSD, shipment.FieldTotalPriceSAR:
		return true
	}
	return false
}

// thinBorders returns thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#000000", Style: 1}
	}
	return borders
}

// =============================================================================
// HELPERS
// =============================================================================

// sheetWriter writes cells by 1-based column/row and keeps the first error.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) set(col, row int, value interface{}) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = eris.Wrap(err, "cell name")
		return
	}
	if err := w.f.SetCellValue(w.sheet, cell, value); err != nil {
		w.err = eris.Wrapf(err, "set %s!%s", w.sheet, cell)
	}
}

// setValue writes a field value: numbers as numbers, text sanitized.
func (w *sheetWriter) setValue(col, row int, f shipment.Field, v shipment.FieldValue) {
	switch v.Kind {
	case shipment.KindNumber:
		if f == shipment.FieldQuantity {
			w.set(col, row, int(v.Num))
			return
		}
		w.set(col, row, v.Num)
	case shipment.KindString:
		w.set(col, row, sanitizeExcelCell(v.Str))
	}
}

func (w *sheetWriter) style(col1, row1, col2, row2, styleID int) {
	if w.err != nil {
		return
	}
	from, err := excelize.CoordinatesToCellName(col1, row1)
	if err != nil {
		w.err = eris.Wrap(err, "cell name")
		return
	}
	to, err := excelize.CoordinatesToCellName(col2, row2)
	if err != nil {
		w.err = eris.Wrap(err, "cell name")
		return
	}
	if err := w.f.SetCellStyle(w.sheet, from, to, styleID); err != nil {
		w.err = eris.Wrapf(err, "style %s!%s:%s", w.sheet, from, to)
	}
}

// styleMoney applies the money format to the price columns of a shipment row.
func (w *sheetWriter) styleMoney(row, styleID int) {
	w.style(colOf(shipment.FieldUnitPrice), row, colOf(shipment.FieldTotalPriceSAR), row, styleID)
}

func (w *sheetWriter) setWidth(col int, width float64) {
	if w.err != nil {
		return
	}
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		w.err = eris.Wrap(err, "column name")
		return
	}
	if err := w.f.SetColWidth(w.sheet, name, name, width); err != nil {
		w.err = eris.Wrapf(err, "set width %s", name)
	}
}

// colOf returns the 1-based shipment-sheet column of a field.
func colOf(f shipment.Field) int {
	for i, c := range itemColumns {
		if c.field == f {
			return i + 2
		}
	}
	return 0
}

// uniqueSheetName strips characters Excel forbids, truncates to 31 runes and
// suffixes duplicates.
func uniqueSheetName(name string, used map[string]bool) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		name = "Shipment"
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}

	candidate := name
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := "(" + strconv.Itoa(n) + ")"
		base := []rune(name)
		if len(base)+len(suffix) > maxSheetName {
			base = base[:maxSheetName-len(suffix)]
		}
		candidate = string(base) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

func writeWorkbook(f *excelize.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, eris.Wrap(err, "write workbook")
	}
	return buf.Bytes(), nil
}
