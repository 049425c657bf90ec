package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/prealert-engine/internal/config"
	"github.com/ginjaninja78/prealert-engine/internal/shipment"
	"github.com/ginjaninja78/prealert-engine/internal/types"
)

const manifestCSV = `MAWB,DN No,Part No,Product Name,QTY,Unit Price,Total Price (USD)
176-16884485,QBF6453800, mg874ah/a ,IPHONE 17 PRO DEEP BLUE 256GB,12,"$1,086.94",
176-16884485,QBF6453801,MG854AH/A,IPHONE 17 PRO SILVER 256GB,2,1086.94,2173.88
176-16406143,QBF6453802,MG874AH/A,IPHONE 17 PRO DEEP BLUE 256GB,-1,1086.94,
176-16406143,QBF6453803,MG854AH/A,IPHONE 17 PRO SILVER 256GB,abc,1086.94,
176-16406143,,MG854AH/A,IPHONE 17 PRO SILVER 256GB,3,1086.94,
176-16406143,QBF6453806,MG874AH/A,IPHONE 17 PRO DEEP BLUE 256GB,4,"1,086.94",
,QBF6453805,MG854AH/A,IPHONE 17 PRO SILVER 256GB,2,1086.94,
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func exampleLoader(t *testing.T) *Loader {
	t.Helper()
	ds := config.ExampleDataset()
	l, err := New(&ds)
	require.NoError(t, err)
	return l
}

func TestLoadFileCSV(t *testing.T) {
	path := writeFile(t, t.TempDir(), "810_manifest.csv", manifestCSV)

	res, err := exampleLoader(t).LoadFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "810", res.Dataset)
	assert.Equal(t, "Inbound", res.Direction)
	assert.Equal(t, 7, res.Rows)

	require.Len(t, res.Shipments, 3)
	assert.Equal(t, "176-16884485", res.Shipments[0].ShipmentID)
	assert.Equal(t, "176-16406143", res.Shipments[1].ShipmentID)
	assert.Equal(t, "810_manifest", res.Shipments[2].ShipmentID)

	first := res.Shipments[0].Items
	require.Len(t, first, 2)
	assert.Equal(t, "810-0", first[0].ID)
	assert.Equal(t, "MG874AH/A", first[0].PartNumber)
	assert.Equal(t, 12, first[0].Quantity)
	assert.Equal(t, 1086.94, first[0].UnitPrice)
	assert.Equal(t, 13043.28, first[0].TotalPriceUSD)
	assert.Equal(t, 48912.3, first[0].TotalPriceSAR)
	assert.Equal(t, "CN", first[0].DispatchCountry)

	assert.Equal(t, "810-1", first[1].ID)
	assert.Equal(t, 2173.88, first[1].TotalPriceUSD)
	assert.Equal(t, 8152.05, first[1].TotalPriceSAR)

	require.Len(t, res.Shipments[1].Items, 1)
	assert.Equal(t, "810-2", res.Shipments[1].Items[0].ID)
	assert.Equal(t, 4347.76, res.Shipments[1].Items[0].TotalPriceUSD)

	require.Len(t, res.Errors, 3)
	assert.Equal(t, 4, res.Errors[0].Row)
	assert.Equal(t, "range", res.Errors[0].Rule)
	assert.Equal(t, shipment.FieldQuantity, res.Errors[0].Field)
	assert.Equal(t, "QTY", res.Errors[0].Header)
	assert.Equal(t, 5, res.Errors[1].Row)
	assert.Equal(t, "data_type", res.Errors[1].Rule)
	assert.Equal(t, 6, res.Errors[2].Row)
	assert.Equal(t, "required", res.Errors[2].Rule)
	assert.Equal(t, "DN No", res.Errors[2].Header)

	assert.Len(t, res.Items(), 4)
}

func TestLoadTableMissingRequiredColumn(t *testing.T) {
	table := &types.Table{
		SourceFile: "810_short.csv",
		Headers:    []string{"DN No", "Part No"},
	}

	_, err := exampleLoader(t).LoadTable(table)
	assert.ErrorContains(t, err, "QTY")
}

func TestLoadTableInfersMappings(t *testing.T) {
	headers := []string{"dnNo", "Quantity", "unit price", "Total Price (SAR)", "Remarks"}
	table := &types.Table{
		SourceFile: "input/pa_0001.csv",
		Headers:    headers,
		Rows: []types.Row{
			types.NewRow(2, headers, []string{"QBF6453800", "2", "1086.94", "9000", "fragile"}),
		},
	}

	l, err := New(config.DefaultDatasetConfig())
	require.NoError(t, err)

	res, err := l.LoadTable(table)
	require.NoError(t, err)
	require.Len(t, res.Shipments, 1)
	assert.Equal(t, "pa_0001", res.Shipments[0].ShipmentID)

	item := res.Shipments[0].Items[0]
	assert.Equal(t, "ITEM-0", item.ID)
	assert.Equal(t, "QBF6453800", item.DocumentNumber)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, 2173.88, item.TotalPriceUSD)
	assert.Equal(t, 9000.0, item.TotalPriceSAR, "stored SAR total is kept")
}

func TestLoadTableDuplicateIDs(t *testing.T) {
	headers := []string{"id", "qty", "unitPrice"}
	table := &types.Table{
		SourceFile: "dup.csv",
		Headers:    headers,
		Rows: []types.Row{
			types.NewRow(2, headers, []string{"S1-0", "1", "10"}),
			types.NewRow(3, headers, []string{"S1-0", "2", "10"}),
		},
	}

	l, err := New(config.DefaultDatasetConfig())
	require.NoError(t, err)

	res, err := l.LoadTable(table)
	require.NoError(t, err)
	assert.Len(t, res.Items(), 1)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "duplicate_id", res.Errors[0].Rule)
	assert.Equal(t, 3, res.Errors[0].Row)
}

func TestLoadTableSortsWithinShipment(t *testing.T) {
	ds := config.DefaultDatasetConfig()
	ds.Grouping.SortByField = "qty"
	ds.Grouping.SortOrder = "desc"

	headers := []string{"dnNo", "qty", "unitPrice"}
	table := &types.Table{
		SourceFile: "sorted.csv",
		Headers:    headers,
		Rows: []types.Row{
			types.NewRow(2, headers, []string{"A", "10", "1"}),
			types.NewRow(3, headers, []string{"B", "30", "1"}),
			types.NewRow(4, headers, []string{"C", "20", "1"}),
			types.NewRow(5, headers, []string{"D", "30", "1"}),
		},
	}

	l, err := New(ds)
	require.NoError(t, err)
	res, err := l.LoadTable(table)
	require.NoError(t, err)

	var order []string
	for _, item := range res.Items() {
		order = append(order, item.DocumentNumber)
	}
	assert.Equal(t, []string{"B", "D", "C", "A"}, order)
}

func TestLoadTableMaxLengthAndStaticOverride(t *testing.T) {
	ds := config.DefaultDatasetConfig()
	ds.ColumnMapping = []config.ColumnMapping{
		{Header: "COO", Field: "coo", MaxLength: 2},
		{Header: "Ref", Field: "bookingRef"},
	}
	ds.StaticFields = []config.StaticField{
		{Field: "bookingRef", Value: "BK019092", Override: true},
		{Field: "cn", Value: "CN"},
	}

	headers := []string{"COO", "Ref"}
	table := &types.Table{
		SourceFile: "static.csv",
		Headers:    headers,
		Rows: []types.Row{
			types.NewRow(2, headers, []string{"CN", "BK000001"}),
			types.NewRow(3, headers, []string{"CHN", "BK000002"}),
		},
	}

	l, err := New(ds)
	require.NoError(t, err)
	res, err := l.LoadTable(table)
	require.NoError(t, err)

	items := res.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "BK019092", items[0].BookingReference)
	assert.Equal(t, "CN", items[0].DispatchCountry)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "max_length", res.Errors[0].Rule)
}

func TestLoadFileXLSXWithMappingTemplate(t *testing.T) {
	dir := t.TempDir()

	tmpl := excelize.NewFile()
	rows := [][]interface{}{
		{"Source Header", "Field", "Data Type", "Max Length", "Required"},
		{"Delivery", "dnNo", "string", 10, "required"},
		{"Pieces", "qty", "integer", "", "required"},
		{"Price", "unitPrice", "decimal", "", "required"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, tmpl.SetSheetRow("Sheet1", cell, &row))
	}
	tmplPath := filepath.Join(dir, "mapping.xlsx")
	require.NoError(t, tmpl.SaveAs(tmplPath))
	require.NoError(t, tmpl.Close())

	data := excelize.NewFile()
	rows = [][]interface{}{
		{"Delivery", "Pieces", "Price"},
		{"QBF6453800", 12, 1086.94},
		{"QBF6453801", 2.5, 1086.94},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, data.SetSheetRow("Sheet1", cell, &row))
	}
	dataPath := filepath.Join(dir, "PA-0001.xlsx")
	require.NoError(t, data.SaveAs(dataPath))
	require.NoError(t, data.Close())

	ds := config.DefaultDatasetConfig()
	ds.MappingTemplate = tmplPath
	l, err := New(ds)
	require.NoError(t, err)

	res, err := l.LoadFile(context.Background(), dataPath)
	require.NoError(t, err)

	items := res.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "QBF6453800", items[0].DocumentNumber)
	assert.Equal(t, 13043.28, items[0].TotalPriceUSD)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, 3, res.Errors[0].Row)
	assert.Equal(t, "Pieces", res.Errors[0].Header)
}

func TestLoadFileRejectsUnknownExtension(t *testing.T) {
	path := writeFile(t, t.TempDir(), "manifest.pdf", "%PDF")
	_, err := exampleLoader(t).LoadFile(context.Background(), path)
	assert.Error(t, err)
}

func TestLoadFileHonoursCancelledContext(t *testing.T) {
	path := writeFile(t, t.TempDir(), "810_manifest.csv", manifestCSV)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exampleLoader(t).LoadFile(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFieldForHeader(t *testing.T) {
	tests := []struct {
		header string
		want   shipment.Field
		ok     bool
	}{
		{"DN No", shipment.FieldDocumentNumber, true},
		{"  Part   No ", shipment.FieldPartNumber, true},
		{"Total Price", shipment.FieldTotalPriceUSD, true},
		{"TOTAL PRICE (SAR)", shipment.FieldTotalPriceSAR, true},
		{"QTY", shipment.FieldQuantity, true},
		{"hsCode", shipment.FieldHarmonizedCode, true},
		{"Remarks", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := FieldForHeader(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}
}

func TestFormatErrors(t *testing.T) {
	assert.Equal(t, "No validation errors.", FormatErrors(nil))

	out := FormatErrors([]*RowError{
		{File: "a.csv", Row: 4, Header: "QTY", Value: "-1", Message: "Value must not be negative"},
		{File: "a.csv", Row: 9, Message: "Duplicate item id 'S1-0'"},
	})
	assert.Contains(t, out, "2 error(s)")
	assert.Contains(t, out, "1. a.csv row 4, column 'QTY': Value must not be negative (value: '-1')")
	assert.Contains(t, out, "2. a.csv row 9: Duplicate item id 'S1-0'")
}

func TestLoadFileRejectsOutOfRangeNumbers(t *testing.T) {
	csv := `MAWB,DN No,Part No,QTY,Unit Price,Total Price (USD)
176-16884485,QBF6453800,MG874AH/A,2,1e400,
176-16884485,QBF6453801,MG874AH/A,99999999999999999999,1086.94,
176-16884485,QBF6453802,MG874AH/A,1,1086.94,5e12
176-16884485,QBF6453803,MG874AH/A,3,1086.94,
`
	path := writeFile(t, t.TempDir(), "810_huge.csv", csv)

	res, err := exampleLoader(t).LoadFile(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, res.Errors, 3)
	for i, field := range []shipment.Field{shipment.FieldUnitPrice, shipment.FieldQuantity, shipment.FieldTotalPriceUSD} {
		assert.Equal(t, "range", res.Errors[i].Rule)
		assert.Equal(t, field, res.Errors[i].Field)
		assert.Equal(t, i+2, res.Errors[i].Row)
	}

	items := res.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "QBF6453803", items[0].DocumentNumber)
	assert.Equal(t, 3260.82, items[0].TotalPriceUSD)
}

func TestLoadFileSkipsRowsWithoutMappedValues(t *testing.T) {
	csv := `MAWB,DN No,Part No,QTY,Unit Price
176-16884485,QBF6453800,MG874AH/A,2,1086.94
TOTAL,,,,
`
	path := writeFile(t, t.TempDir(), "810_totals.csv", csv)

	res, err := exampleLoader(t).LoadFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Rows)
	assert.Empty(t, res.Errors)
	require.Len(t, res.Shipments, 1)
	assert.Equal(t, "176-16884485", res.Shipments[0].ShipmentID)
	assert.Len(t, res.Items(), 1)
}
