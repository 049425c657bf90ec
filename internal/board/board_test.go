package board

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/prealert-engine/internal/mismatch"
	"github.com/ginjaninja78/prealert-engine/internal/shipment"
)

func demo(t *testing.T) Snapshot {
	t.Helper()
	s, err := Demo(shipment.WithSeed(21))
	require.NoError(t, err)
	return s
}

func TestDemoBoard(t *testing.T) {
	s := demo(t)

	shipments := s.Shipments()
	require.Len(t, shipments, 2)
	assert.Equal(t, DemoShipment1, shipments[0].ID)
	assert.Len(t, shipments[0].Items, 15)
	assert.Equal(t, "S1-0", shipments[0].Items[0].ID)
	assert.Len(t, shipments[1].Items, 8)
	assert.Equal(t, "BK018987", shipments[1].Items[0].BookingReference)
	assert.Equal(t, Inbound, s.Direction())
}

func TestViewPaginatesAndSummarizes(t *testing.T) {
	s := demo(t)

	v, err := s.View(DefaultPageSize, 1)
	require.NoError(t, err)
	require.Len(t, v.Tables, 2)

	first := v.Tables[0]
	assert.Nil(t, first.Shipment.Items)
	assert.Len(t, first.Items, 15)
	assert.Equal(t, 15, first.Summary.ItemCount)
	assert.Equal(t, 1, first.Page.Count)
	assert.Len(t, first.Page.Items, 15)

	v, err = s.WithSearch("silver").View(5, 2)
	require.NoError(t, err)
	first = v.Tables[0]
	assert.Len(t, first.Items, 7)
	assert.Equal(t, 7, first.Summary.ItemCount)
	assert.Equal(t, 2, first.Page.Count)
	require.Len(t, first.Page.Items, 2)
	assert.Equal(t, "S1-11", first.Page.Items[0].ID)

	v, err = s.View(5, 99)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Tables[0].Page.Number)
}

func TestViewRejectsBadPaging(t *testing.T) {
	s := demo(t)

	_, err := s.View(0, 1)
	assert.True(t, errors.Is(err, shipment.ErrInvalidArgument))
	_, err = s.View(15, 0)
	assert.True(t, errors.Is(err, shipment.ErrInvalidArgument))
}

func TestDirectionFilter(t *testing.T) {
	s := demo(t)

	out, err := s.WithDirection(Outbound)
	require.NoError(t, err)
	v, err := out.View(15, 1)
	require.NoError(t, err)
	assert.Empty(t, v.Tables)

	all, err := s.WithDirection("")
	require.NoError(t, err)
	v, err = all.View(15, 1)
	require.NoError(t, err)
	assert.Len(t, v.Tables, 2)

	_, err = s.WithDirection("Sideways")
	assert.True(t, errors.Is(err, shipment.ErrInvalidArgument))

	d, err := ParseDirection("outbound")
	require.NoError(t, err)
	assert.Equal(t, Outbound, d)
}

func TestDateRange(t *testing.T) {
	s := demo(t)
	oct := func(d int) time.Time { return time.Date(2025, time.October, d, 12, 0, 0, 0, time.UTC) }

	narrowed, err := s.WithDateRange(oct(10), time.Time{})
	require.NoError(t, err)
	v, err := narrowed.View(15, 1)
	require.NoError(t, err)
	require.Len(t, v.Tables, 1)
	assert.Equal(t, DemoShipment1, v.Tables[0].Shipment.ID)

	narrowed, err = s.WithDateRange(oct(7), oct(7))
	require.NoError(t, err)
	v, err = narrowed.View(15, 1)
	require.NoError(t, err)
	require.Len(t, v.Tables, 1)
	assert.Equal(t, DemoShipment2, v.Tables[0].Shipment.ID)

	_, err = s.WithDateRange(oct(9), oct(8))
	assert.True(t, errors.Is(err, shipment.ErrInvalidArgument))
}

func TestDeleteAndRestore(t *testing.T) {
	s := demo(t)

	deleted, err := s.Delete(DemoShipment1, "S1-4")
	require.NoError(t, err)
	assert.Len(t, deleted.Shipments()[0].Items, 14)
	assert.Len(t, s.Shipments()[0].Items, 15, "receiver must not change")

	gone := deleted.Deleted()
	require.Len(t, gone, 1)
	assert.Equal(t, Deleted{ShipmentID: DemoShipment1, Index: 4, Item: s.Shipments()[0].Items[4]}, gone[0])

	restored, err := deleted.Restore("S1-4")
	require.NoError(t, err)
	assert.Equal(t, s.Shipments(), restored.Shipments())
	assert.Empty(t, restored.Deleted())

	_, err = s.Delete(DemoShipment1, "S9-0")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = s.Delete("000-0", "S1-0")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = s.Restore("S1-4")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMove(t *testing.T) {
	s := demo(t)

	moved, err := s.Move(DemoShipment2, "S2-0", 100)
	require.NoError(t, err)
	items := moved.Shipments()[1].Items
	assert.Equal(t, "S2-1", items[0].ID)
	assert.Equal(t, "S2-0", items[7].ID)
	assert.Equal(t, "S2-0", s.Shipments()[1].Items[0].ID)
}

func TestSnapshotsAreSafeToShare(t *testing.T) {
	s := demo(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			next, err := s.WithSearch("blue").Delete(DemoShipment1, "S1-0")
			if err != nil {
				t.Error(err)
				return
			}
			if _, err := next.View(15, 1); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, s.Deleted())
	assert.Empty(t, s.SearchTerm())
}

func TestDemoPairFlagsRowThree(t *testing.T) {
	s := demo(t)
	manifest, preAlert := DemoPair(s.Shipments()[0])
	require.Len(t, manifest, 10)

	c, err := mismatch.Compare(manifest, preAlert,
		[]shipment.Field{shipment.FieldDocumentNumber, shipment.FieldPartNumber, shipment.FieldQuantity, shipment.FieldUnitPrice, shipment.FieldTotalPriceUSD}, 0)
	require.NoError(t, err)

	flagged := c.Flagged()
	require.Len(t, flagged, 1)
	assert.Equal(t, 3, flagged[0].Index)
}
