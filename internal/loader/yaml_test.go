package loader

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/prealert-engine/internal/config"
)

func defaultLoader(t *testing.T) *Loader {
	t.Helper()
	l, err := New(config.DefaultDatasetConfig())
	require.NoError(t, err)
	return l
}

func TestLoadYAMLList(t *testing.T) {
	data := []byte(`
- dnNo: QBF6453800
  partNo: MG874AH/A
  qty: 2
  unitPrice: 1086.94
- id: S1-1
  dnNo: QBF6453801
  qty: 12
  unitPrice: 1086.94
  totalPriceUSD: 13000
`)

	res, err := defaultLoader(t).LoadYAML("prealert.yaml", data)
	require.NoError(t, err)
	require.Len(t, res.Shipments, 1)
	assert.Equal(t, "prealert", res.Shipments[0].ShipmentID)

	items := res.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "ITEM-0", items[0].ID)
	assert.Equal(t, 2173.88, items[0].TotalPriceUSD)
	assert.Equal(t, 8152.05, items[0].TotalPriceSAR)

	assert.Equal(t, "S1-1", items[1].ID)
	assert.Equal(t, 13000.0, items[1].TotalPriceUSD, "stored totals are kept")
	assert.Equal(t, 48750.0, items[1].TotalPriceSAR)
	assert.Empty(t, res.Errors)
}

func TestLoadYAMLShipments(t *testing.T) {
	data := []byte(`shipments:
  - shipment: 176-16884485
    items:
      - dnNo: QBF6453800
        qty: 1
        unitPrice: 10
  - shipment: 176-16406143
    items:
      - dnNo: QBF6453801
        qty: -3
        unitPrice: 10
      - dnNo: QBF6453802
        qty: 3
        unitPrice: 10
`)

	res, err := defaultLoader(t).LoadYAML("board.yaml", data)
	require.NoError(t, err)
	require.Len(t, res.Shipments, 2)
	assert.Equal(t, "176-16884485", res.Shipments[0].ShipmentID)
	assert.Equal(t, "176-16406143", res.Shipments[1].ShipmentID)
	require.Len(t, res.Shipments[1].Items, 1)
	assert.Equal(t, 30.0, res.Shipments[1].Items[0].TotalPriceUSD)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, 9, res.Errors[0].Row, "YAML line of the rejected item")
	assert.Equal(t, "range", res.Errors[0].Rule)
}

func TestLoadYAMLSingleShipment(t *testing.T) {
	data := []byte(`shipment: 176-16884485
items:
  - dnNo: QBF6453800
    qty: 1
    unitPrice: 10
  - [not, a, mapping]
`)

	res, err := defaultLoader(t).LoadYAML("one.yaml", data)
	require.NoError(t, err)
	require.Len(t, res.Shipments, 1)
	assert.Equal(t, "176-16884485", res.Shipments[0].ShipmentID)
	assert.Equal(t, 2, res.Rows)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 6, res.Errors[0].Row)
}

func TestLoadYAMLMalformed(t *testing.T) {
	tests := map[string]string{
		"scalar document": "just text",
		"items not list":  "shipment: X\nitems: 3\n",
		"no items":        "shipment: X\n",
		"bad syntax":      "- dnNo: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := defaultLoader(t).LoadYAML("bad.yaml", []byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadYAMLEmptyDocument(t *testing.T) {
	res, err := defaultLoader(t).LoadYAML("empty.yaml", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Shipments)
	assert.Empty(t, res.Items())
}

func TestLoadFileYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "s2.yml", "- dnNo: QBF6453800\n  qty: 1\n  unitPrice: 1\n")
	res, err := defaultLoader(t).LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, res.Items(), 1)
	assert.Equal(t, "s2", res.Shipments[0].ShipmentID)
}
