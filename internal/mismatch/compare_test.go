package mismatch

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/prealert-engine/internal/shipment"
)

var priceFields = []shipment.Field{shipment.FieldQuantity, shipment.FieldUnitPrice, shipment.FieldTotalPriceUSD}

func batch(t *testing.T, n int) shipment.Collection {
	t.Helper()
	items, err := shipment.Generate(n, "S1", shipment.WithSeed(5))
	require.NoError(t, err)
	return items
}

// zeroPrice mirrors the pre-alert that dropped the price of one row.
func zeroPrice(items shipment.Collection, idx int) shipment.Collection {
	out := items.Clone()
	out[idx].UnitPrice = 0
	out[idx].TotalPriceUSD = 0
	return out
}

func TestCompareSingleZeroedRow(t *testing.T) {
	left := batch(t, 10)
	right := zeroPrice(left, 3)

	c, err := Compare(left, right, priceFields, 0)
	require.NoError(t, err)
	require.Len(t, c.Results, 10)
	assert.Empty(t, c.Unmatched)

	flagged := c.Flagged()
	require.Len(t, flagged, 1)
	assert.Equal(t, 3, flagged[0].Index)
	assert.Equal(t, []shipment.Field{shipment.FieldUnitPrice, shipment.FieldTotalPriceUSD}, flagged[0].Fields)
	assert.True(t, *flagged[0].Left.Mismatch)
	assert.True(t, *flagged[0].Right.Mismatch)

	for _, r := range c.Results {
		if r.Index != 3 {
			assert.False(t, r.Flagged())
			require.NotNil(t, r.Left.Mismatch)
			assert.False(t, *r.Left.Mismatch)
		}
	}
}

func TestCompareDoesNotMutateInputs(t *testing.T) {
	left := batch(t, 6)
	right := zeroPrice(left, 2)
	leftBefore, rightBefore := left.Clone(), right.Clone()

	c, err := Compare(left, right, shipment.AllFields, 0)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(leftBefore, left))
	assert.Empty(t, cmp.Diff(rightBefore, right))
	for _, item := range left {
		assert.Nil(t, item.Mismatch)
	}

	*c.Results[0].Left.Mismatch = true
	assert.Nil(t, left[0].Mismatch)
}

func TestCompareToleranceAbsorbsSmallDeltas(t *testing.T) {
	left := shipment.Collection{{ID: "a", UnitPrice: 10.00}}
	right := shipment.Collection{{ID: "a", UnitPrice: 10.004}}
	fields := []shipment.Field{shipment.FieldUnitPrice}

	strict, err := Compare(left, right, fields, 0)
	require.NoError(t, err)
	assert.Len(t, strict.Flagged(), 1)

	loose, err := Compare(left, right, fields, 0.01)
	require.NoError(t, err)
	assert.Empty(t, loose.Flagged())
}

func TestCompareStringsAreCaseSensitive(t *testing.T) {
	left := shipment.Collection{{ProductName: "IPHONE 17 PRO"}}
	right := shipment.Collection{{ProductName: "iphone 17 pro"}}

	c, err := Compare(left, right, []shipment.Field{shipment.FieldProductName}, 1000)
	require.NoError(t, err)
	require.Len(t, c.Results, 1)
	assert.True(t, c.Results[0].Has(shipment.FieldProductName))
}

func TestCompareUnequalLengths(t *testing.T) {
	left := batch(t, 5)
	right := left[:3].Clone()

	c, err := Compare(left, right, priceFields, 0)
	require.NoError(t, err)
	assert.Len(t, c.Results, 3)
	require.Len(t, c.Unmatched, 2)
	assert.Equal(t, Unmatched{Index: 3, Side: SideLeft, Item: left[3]}, c.Unmatched[0])
	assert.Equal(t, SideLeft, c.Unmatched[1].Side)

	c, err = Compare(nil, right, priceFields, 0)
	require.NoError(t, err)
	assert.Empty(t, c.Results)
	assert.Len(t, c.Unmatched, 3)
	assert.Equal(t, SideRight, c.Unmatched[0].Side)
}

func TestCompareEmptyInputs(t *testing.T) {
	c, err := Compare(nil, shipment.Collection{}, priceFields, 0)
	require.NoError(t, err)
	assert.Empty(t, c.Results)
	assert.Empty(t, c.Unmatched)
	assert.True(t, c.Clean())
}

func TestCompareRejectsBadArguments(t *testing.T) {
	items := batch(t, 2)

	tests := []struct {
		name      string
		fields    []shipment.Field
		tolerance float64
		opts      []Option
	}{
		{"negative tolerance", priceFields, -0.5, nil},
		{"no fields", nil, 0, nil},
		{"unknown field", []shipment.Field{"weight"}, 0, nil},
		{"empty key", priceFields, 0, []Option{WithKeyPairing()}},
		{"unknown key", priceFields, 0, []Option{WithKeyPairing("mawb")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Compare(items, items, tt.fields, tt.tolerance, tt.opts...)
			require.Error(t, err)
			assert.Nil(t, c)
			assert.True(t, errors.Is(err, shipment.ErrInvalidArgument))
		})
	}
}

func TestDiffMissingValueIsFlagged(t *testing.T) {
	a := shipment.LineItem{ID: "x"}
	got := Diff(a, a, []shipment.Field{shipment.FieldID, "weight"}, 0)
	assert.Equal(t, []shipment.Field{"weight"}, got)
}

func TestDiffNaNIsFlagged(t *testing.T) {
	a := shipment.LineItem{ID: "x", UnitPrice: 10}
	b := a
	b.UnitPrice = math.NaN()

	assert.Equal(t, []shipment.Field{shipment.FieldUnitPrice}, Diff(a, b, priceFields, 1e9))
	assert.Equal(t, []shipment.Field{shipment.FieldUnitPrice}, Diff(b, b, priceFields, 0))
}

func TestCompareKeyPairing(t *testing.T) {
	left := shipment.Collection{
		{ID: "L0", DocumentNumber: "QBF1", PartNumber: "A", Quantity: 10},
		{ID: "L1", DocumentNumber: "QBF2", PartNumber: "B", Quantity: 20},
		{ID: "L2", DocumentNumber: "QBF1", PartNumber: "A", Quantity: 30},
		{ID: "L3", DocumentNumber: "QBF9", PartNumber: "Z", Quantity: 1},
	}
	right := shipment.Collection{
		{ID: "R0", DocumentNumber: "QBF2", PartNumber: "B", Quantity: 20},
		{ID: "R1", DocumentNumber: "QBF1", PartNumber: "A", Quantity: 10},
		{ID: "R2", DocumentNumber: "QBF1", PartNumber: "A", Quantity: 31},
		{ID: "R3", DocumentNumber: "QBF7", PartNumber: "Y", Quantity: 1},
	}

	c, err := Compare(left, right, []shipment.Field{shipment.FieldQuantity}, 0,
		WithKeyPairing(shipment.FieldDocumentNumber, shipment.FieldPartNumber))
	require.NoError(t, err)
	assert.Equal(t, PairByKey, c.Pairing)

	require.Len(t, c.Results, 3)
	pairs := make(map[string]string)
	for _, r := range c.Results {
		pairs[r.Left.ID] = r.Right.ID
	}
	assert.Equal(t, map[string]string{"L0": "R1", "L1": "R0", "L2": "R2"}, pairs)

	flagged := c.Flagged()
	require.Len(t, flagged, 1)
	assert.Equal(t, "L2", flagged[0].Left.ID)
	assert.Equal(t, 2, flagged[0].RightIndex)

	require.Len(t, c.Unmatched, 2)
	assert.Equal(t, "L3", c.Unmatched[0].Item.ID)
	assert.Equal(t, SideLeft, c.Unmatched[0].Side)
	assert.Equal(t, "R3", c.Unmatched[1].Item.ID)
	assert.Equal(t, SideRight, c.Unmatched[1].Side)
}

func TestCompareProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 150
	properties := gopter.NewProperties(parameters)

	properties.Property("identical inputs never flag", prop.ForAll(
		func(n int, seed uint64) bool {
			items, err := shipment.Generate(n, "P", shipment.WithSeed(seed))
			if err != nil {
				return false
			}
			c, err := Compare(items, items.Clone(), shipment.AllFields, 0)
			return err == nil && len(c.Results) == n && len(c.Flagged()) == 0
		},
		gen.IntRange(0, 40),
		gen.UInt64(),
	))

	properties.Property("one zeroed row is the only flag", prop.ForAll(
		func(n int, seed uint64, pick int) bool {
			items, err := shipment.Generate(n, "P", shipment.WithSeed(seed))
			if err != nil {
				return false
			}
			idx := pick % n
			c, err := Compare(items, zeroPrice(items, idx), priceFields, 0)
			if err != nil {
				return false
			}
			flagged := c.Flagged()
			return len(flagged) == 1 && flagged[0].Index == idx &&
				cmp.Equal(flagged[0].Fields, []shipment.Field{shipment.FieldUnitPrice, shipment.FieldTotalPriceUSD})
		},
		gen.IntRange(1, 30),
		gen.UInt64(),
		gen.IntRange(0, 1000),
	))

	properties.Property("raising tolerance never adds flags", prop.ForAll(
		func(seed uint64, t1, t2 float64) bool {
			left, err := shipment.Generate(12, "P", shipment.WithSeed(seed))
			if err != nil {
				return false
			}
			right, err := shipment.Generate(12, "P", shipment.WithSeed(seed+1))
			if err != nil {
				return false
			}
			lo, hi := min(t1, t2), max(t1, t2)
			a, err := Compare(left, right, shipment.AllFields, lo)
			if err != nil {
				return false
			}
			b, err := Compare(left, right, shipment.AllFields, hi)
			if err != nil {
				return false
			}
			for i := range b.Results {
				for _, f := range b.Results[i].Fields {
					if !a.Results[i].Has(f) {
						return false
					}
				}
			}
			return len(b.Flagged()) <= len(a.Flagged())
		},
		gen.UInt64(),
		gen.Float64Range(0, 500000),
		gen.Float64Range(0, 500000),
	))

	properties.TestingRun(t)
}
