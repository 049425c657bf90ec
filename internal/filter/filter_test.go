package filter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/prealert-engine/internal/shipment"
)

func demoBatch(t *testing.T) shipment.Collection {
	t.Helper()
	items, err := shipment.Generate(15, "S1", shipment.WithSeed(11))
	require.NoError(t, err)
	return items
}

func TestByTermEmptyReturnsCopy(t *testing.T) {
	items := demoBatch(t)

	got := ByTerm(items, "")
	if diff := cmp.Diff(items, got); diff != "" {
		t.Fatalf("empty term changed the collection (-want +got):\n%s", diff)
	}

	got[0].ProductName = "changed"
	assert.NotEqual(t, "changed", items[0].ProductName)
}

func TestByTermSilverKeepsOddRows(t *testing.T) {
	items := demoBatch(t)

	got := ByTerm(items, "iphone 17 pro silver")
	require.Len(t, got, 7)
	for i, item := range got {
		assert.Equal(t, "IPHONE 17 PRO SILVER 256GB", item.ProductName)
		assert.Equal(t, items[2*i+1].ID, item.ID, "order must follow the source")
	}
}

func TestByTermMatchesDocumentNumber(t *testing.T) {
	items := demoBatch(t)

	got := ByTerm(items, "qbf6453812")
	require.Len(t, got, 1)
	assert.Equal(t, "S1-12", got[0].ID)
}

func TestByTermIgnoresOtherFields(t *testing.T) {
	items := shipment.Collection{
		{ID: "x", DocumentNumber: "QBF1", ProductName: "CABLE", PartNumber: "MG874AH/A", HarmonizedCode: "8517"},
	}

	assert.Empty(t, ByTerm(items, "mg874"))
	assert.Empty(t, ByTerm(items, "8517"))
	assert.Len(t, ByTerm(items, "cab"), 1)
}

func TestByTermNoMatch(t *testing.T) {
	got := ByTerm(demoBatch(t), "ipad")
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Nil(t, ByTerm(nil, "x"))
}

func TestByTermIdempotentForKnownTerms(t *testing.T) {
	items := demoBatch(t)
	for _, term := range []string{"silver", "BLUE", "QBF64538", "17 pro", ""} {
		once := ByTerm(items, term)
		assert.Empty(t, cmp.Diff(once, ByTerm(once, term)), term)
	}
}

func TestByTermProperties(t *testing.T) {
	items := demoBatch(t)
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("idempotent", prop.ForAll(
		func(term string) bool {
			once := ByTerm(items, term)
			return cmp.Equal(once, ByTerm(once, term))
		},
		gen.AlphaString(),
	))

	properties.Property("result is an ordered subsequence", prop.ForAll(
		func(term string) bool {
			got := ByTerm(items, term)
			j := 0
			for _, item := range items {
				if j < len(got) && got[j].ID == item.ID {
					j++
				}
			}
			return j == len(got)
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
