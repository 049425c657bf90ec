// Package summary aggregates shipment collections into display totals.
package summary

import "github.com/ginjaninja78/prealert-engine/internal/shipment"

// Summary holds the totals shown under a shipment grid. It is derived data
// and never stored.
type Summary struct {
	ItemCount     int     `yaml:"itemCount" json:"itemCount"`
	TotalQuantity int     `yaml:"totalQuantity" json:"totalQuantity"`
	TotalPriceUSD float64 `yaml:"totalPriceUSD" json:"totalPriceUSD"`
	TotalPriceSAR float64 `yaml:"totalPriceSAR" json:"totalPriceSAR"`
}

// Summarize totals a collection. Prices are summed from the stored per-item
// totals, left to right, so overridden values in loaded data are honored.
// An empty or nil collection yields the zero Summary.
func Summarize(items shipment.Collection) Summary {
	var s Summary
	s.ItemCount = len(items)
	for _, item := range items {
		s.TotalQuantity += item.Quantity
		s.TotalPriceUSD += item.TotalPriceUSD
		s.TotalPriceSAR += item.TotalPriceSAR
	}
	return s
}

// Discrepancy is the per-total difference between two summaries (left - right).
// The comparison modal shows it next to the field-level mismatches.
type Discrepancy struct {
	ItemCount     int     `yaml:"itemCount" json:"itemCount"`
	TotalQuantity int     `yaml:"totalQuantity" json:"totalQuantity"`
	TotalPriceUSD float64 `yaml:"totalPriceUSD" json:"totalPriceUSD"`
	TotalPriceSAR float64 `yaml:"totalPriceSAR" json:"totalPriceSAR"`
}

// Diff returns left minus right for every total. Money deltas are rounded to
// 2 places.
func Diff(left, right Summary) Discrepancy {
	return Discrepancy{
		ItemCount:     left.ItemCount - right.ItemCount,
		TotalQuantity: left.TotalQuantity - right.TotalQuantity,
		TotalPriceUSD: shipment.Round2(left.TotalPriceUSD - right.TotalPriceUSD),
		TotalPriceSAR: shipment.Round2(left.TotalPriceSAR - right.TotalPriceSAR),
	}
}

// IsZero reports whether the two summaries agreed on every total.
func (d Discrepancy) IsZero() bool {
	return d == Discrepancy{}
}
