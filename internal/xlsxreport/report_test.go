package xlsxreport

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/prealert-engine/internal/mismatch"
	"github.com/ginjaninja78/prealert-engine/internal/shipment"
	"github.com/ginjaninja78/prealert-engine/internal/summary"
)

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func items() shipment.Collection {
	return shipment.Collection{
		shipment.LineItem{ID: "S1-0", DocumentNumber: "QBF6453800", PartNumber: "MG874AH/A", Quantity: 2, UnitPrice: 1086.94}.WithPrices(),
		shipment.LineItem{ID: "S1-1", DocumentNumber: "QBF6453801", ProductName: "=HYPERLINK(\"x\")", Quantity: 1, UnitPrice: 10}.WithPrices(),
	}
}

func TestGenerateShipments(t *testing.T) {
	data, err := GenerateShipments("Carrier 810 manifest", []Shipment{
		{ID: "176-16884485", Direction: "Inbound", Items: items()},
		{ID: "176-16406143", Items: items()[:1]},
	})
	require.NoError(t, err)

	f := openWorkbook(t, data)
	assert.Equal(t, []string{"176-16884485", "176-16406143"}, f.GetSheetList())

	sheet := "176-16884485"
	title, err := f.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Carrier 810 manifest", title)

	subtitle, _ := f.GetCellValue(sheet, "A2")
	assert.Equal(t, "MAWB: 176-16884485  |  Inbound", subtitle)

	header, _ := f.GetCellValue(sheet, "C4")
	assert.Equal(t, "DN No", header)

	dn, _ := f.GetCellValue(sheet, "C5")
	assert.Equal(t, "QBF6453800", dn)

	product, _ := f.GetCellValue(sheet, "E6")
	assert.Equal(t, "'=HYPERLINK(\"x\")", product, "formula-like text is neutralised")

	qtyTotal, _ := f.GetCellValue(sheet, "H7", excelize.Options{RawCellValue: true})
	assert.Equal(t, "3", qtyTotal)
	usdTotal, _ := f.GetCellValue(sheet, "J7", excelize.Options{RawCellValue: true})
	usd, err := strconv.ParseFloat(usdTotal, 64)
	require.NoError(t, err)
	assert.InDelta(t, 2183.88, usd, 0.001)
	label, _ := f.GetCellValue(sheet, "B7")
	assert.Equal(t, "Total", label)
}

func TestGenerateShipmentsEmpty(t *testing.T) {
	data, err := GenerateShipments("empty", nil)
	require.NoError(t, err)

	f := openWorkbook(t, data)
	assert.Equal(t, []string{"Shipment"}, f.GetSheetList())
}

func TestGenerateMismatch(t *testing.T) {
	left := items()
	right := left.Clone()
	right[1].UnitPrice = 0
	right[1].TotalPriceUSD = 0
	right = append(right, shipment.LineItem{ID: "S1-2"})

	fields := []shipment.Field{shipment.FieldDocumentNumber, shipment.FieldUnitPrice, shipment.FieldTotalPriceUSD}
	c, err := mismatch.Compare(left, right, fields, 0)
	require.NoError(t, err)

	data, err := GenerateMismatch(Mismatch{
		LeftName:   "810",
		RightName:  "pre-alert",
		Left:       summary.Summarize(left),
		Right:      summary.Summarize(right),
		Comparison: c,
	})
	require.NoError(t, err)

	f := openWorkbook(t, data)
	assert.Equal(t, []string{"Mismatch", "Totals"}, f.GetSheetList())

	source, _ := f.GetCellValue("Mismatch", "B7")
	assert.Equal(t, "810", source)
	source, _ = f.GetCellValue("Mismatch", "B8")
	assert.Equal(t, "pre-alert", source)

	// Pair 2 unit price (column J) is flagged on both rows.
	for _, cell := range []string{"J7", "J8", "K7", "K8"} {
		styleID, err := f.GetCellStyle("Mismatch", cell)
		require.NoError(t, err)
		style, err := f.GetStyle(styleID)
		require.NoError(t, err)
		require.Len(t, style.Fill.Color, 1, cell)
		assert.Contains(t, strings.ToUpper(style.Fill.Color[0]), "FFC7CE", cell)
	}

	// Agreeing cells are not filled.
	styleID, err := f.GetCellStyle("Mismatch", "J5")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	assert.Empty(t, style.Fill.Color)

	unmatched, _ := f.GetCellValue("Mismatch", "B9")
	assert.Equal(t, "pre-alert only", unmatched)

	diff, _ := f.GetCellValue("Totals", "D2", excelize.Options{RawCellValue: true})
	assert.Equal(t, "-1", diff)
}

func TestGenerateMismatchRequiresComparison(t *testing.T) {
	_, err := GenerateMismatch(Mismatch{})
	assert.Error(t, err)
}

func TestUniqueSheetName(t *testing.T) {
	used := make(map[string]bool)
	assert.Equal(t, "176-16884485", uniqueSheetName("176-16884485", used))
	assert.Equal(t, "176-16884485(2)", uniqueSheetName("176-16884485", used))
	assert.Equal(t, "a_b_c", uniqueSheetName("a/b:c", used))
	assert.Equal(t, "Shipment", uniqueSheetName("  ", used))

	long := uniqueSheetName("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789", used)
	assert.Len(t, long, 31)
}

func TestSanitizeExcelCell(t *testing.T) {
	tests := map[string]string{
		"":           "",
		"=1+1":       "'=1+1",
		"+SUM(A1)":   "'+SUM(A1)",
		"-2":         "'-2",
		"@cmd":       "'@cmd",
		"QBF6453800": "QBF6453800",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeExcelCell(in), in)
	}
}
