package board

import (
	"time"

	"github.com/ginjaninja78/prealert-engine/internal/shipment"
)

// Demo shipment numbers.
const (
	DemoShipment1 = "176-16884485"
	DemoShipment2 = "176-16406143"
)

// DemoShipments builds the two inbound shipments the board starts with:
// 15 items batched "S1" and 8 items batched "S2".
func DemoShipments(opts ...shipment.Option) ([]Shipment, error) {
	s1, err := shipment.Generate(15, "S1", opts...)
	if err != nil {
		return nil, err
	}
	s2, err := shipment.Generate(8, "S2", opts...)
	if err != nil {
		return nil, err
	}
	for i := range s2 {
		s2[i].BookingReference = "BK018987"
	}

	return []Shipment{
		{
			ID:          DemoShipment1,
			Sequence:    1,
			Direction:   Inbound,
			Received:    time.Date(2025, time.October, 15, 13, 24, 46, 0, time.UTC),
			Date:        time.Date(2025, time.October, 15, 0, 0, 0, 0, time.UTC),
			Country:     shipment.DefaultDispatchCountry,
			Status:      "Uploaded",
			ReferenceNo: shipment.DefaultBookingReference,
			Header: Header{
				GrossWeightKG:   1500,
				Pallets:         6,
				DispatchCountry: shipment.DefaultDispatchCountry,
				ETD:             time.Date(2025, time.October, 15, 0, 0, 0, 0, time.UTC),
			},
			Items: s1,
		},
		{
			ID:          DemoShipment2,
			Sequence:    2,
			Direction:   Inbound,
			Received:    time.Date(2025, time.October, 8, 9, 28, 11, 0, time.UTC),
			Date:        time.Date(2025, time.October, 7, 0, 0, 0, 0, time.UTC),
			Country:     shipment.DefaultDispatchCountry,
			Status:      "Uploaded",
			ReferenceNo: "BK018987",
			Header: Header{
				DispatchCountry: shipment.DefaultDispatchCountry,
			},
			Items: s2,
		},
	}, nil
}

// Demo returns the initial board built from DemoShipments.
func Demo(opts ...shipment.Option) (Snapshot, error) {
	shipments, err := DemoShipments(opts...)
	if err != nil {
		return Snapshot{}, err
	}
	return New(shipments...), nil
}

// DemoPair returns the sample reconciliation inputs: the first ten items of
// the first demo shipment as the 810 side, and a pre-alert copy in which
// item 3 lost its unit and total price.
func DemoPair(s Shipment) (manifest, preAlert shipment.Collection) {
	n := min(10, len(s.Items))
	manifest = s.Items[:n].Clone()
	preAlert = manifest.Clone()
	if n > 3 {
		preAlert[3].UnitPrice = 0
		preAlert[3].TotalPriceUSD = 0
	}
	return manifest, preAlert
}
