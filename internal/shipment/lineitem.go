// =============================================================================
// Pre-Alert Engine - Shipment Line Items
// =============================================================================
//
// This package holds the line-item record shared by every other package:
//   - generator   : produces demo collections
//   - summary     : aggregates totals
//   - filter      : substring search
//   - mismatch    : field-level comparison between two collections
//   - loader      : builds collections from CSV / XLSX / YAML files
//
// PRICE INVARIANTS:
//   TotalPriceUSD == Round2(Quantity * UnitPrice)
//   TotalPriceSAR == Round2(TotalPriceUSD * SARRate)
//
// =============================================================================

package shipment

import (
	"math"

	"github.com/shopspring/decimal"
)

// SARRate is the fixed USD -> SAR conversion rate.
const SARRate = 3.75

// MaxAmount caps unit prices and totals accepted from sources and options.
const MaxAmount = 1e12

// =============================================================================
// LINE ITEM
// =============================================================================

// LineItem represents one product/quantity/price row within a shipment batch.
type LineItem struct {
	// ID is unique within its owning collection.
	ID string `yaml:"id" json:"id"`

	// DocumentNumber is the delivery note number (dnNo).
	DocumentNumber string `yaml:"dnNo" json:"dnNo"`

	PartNumber      string `yaml:"partNo" json:"partNo"`
	ProductName     string `yaml:"productName" json:"productName"`
	CountryOfOrigin string `yaml:"coo" json:"coo"`
	HarmonizedCode  string `yaml:"hsCode" json:"hsCode"`

	// Quantity is never negative.
	Quantity int `yaml:"qty" json:"qty"`

	// UnitPrice is in USD and never negative.
	UnitPrice float64 `yaml:"unitPrice" json:"unitPrice"`

	// TotalPriceUSD and TotalPriceSAR are derived, see PriceTotals.
	// Loaded data may carry overridden values; aggregation uses them as stored.
	TotalPriceUSD float64 `yaml:"totalPriceUSD" json:"totalPriceUSD"`
	TotalPriceSAR float64 `yaml:"totalPriceSAR" json:"totalPriceSAR"`

	// DispatchCountry, BookingReference and Uploaded are carried from the
	// pre-alert submission for display only.
	DispatchCountry  string `yaml:"cn,omitempty" json:"cn,omitempty"`
	BookingReference string `yaml:"bookingRef,omitempty" json:"bookingRef,omitempty"`
	Uploaded         bool   `yaml:"uploaded,omitempty" json:"uploaded,omitempty"`

	// Mismatch is nil unless the item is a copy returned by the comparator.
	Mismatch *bool `yaml:"mismatch,omitempty" json:"mismatch,omitempty"`
}

// Collection is an ordered batch of line items. Insertion order is display order.
type Collection []LineItem

// Clone returns a copy of the collection. Items are copied by value; the
// Mismatch pointer is duplicated so the copy never aliases the source flag.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	out := make(Collection, len(c))
	for i, item := range c {
		out[i] = item.Clone()
	}
	return out
}

// Clone returns a deep copy of the item.
func (li LineItem) Clone() LineItem {
	if li.Mismatch != nil {
		flag := *li.Mismatch
		li.Mismatch = &flag
	}
	return li
}

// WithPrices returns a copy of the item with both totals recomputed from
// Quantity and UnitPrice.
func (li LineItem) WithPrices() LineItem {
	li.TotalPriceUSD, li.TotalPriceSAR = PriceTotals(li.Quantity, li.UnitPrice)
	return li
}

// =============================================================================
// PRICE HELPERS
// =============================================================================

// Round2 rounds a value to 2 decimal places, half away from zero.
// NaN and infinities are returned unchanged.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// PriceTotals returns the USD and SAR totals for a quantity at a unit price.
func PriceTotals(quantity int, unitPrice float64) (usd, sar float64) {
	usd = Round2(float64(quantity) * unitPrice)
	return usd, ToSAR(usd)
}

// ToSAR converts a USD amount with the fixed rate, rounded to 2 places.
func ToSAR(usd float64) float64 {
	return Round2(usd * SARRate)
}
