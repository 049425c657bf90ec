// =============================================================================
// Pre-Alert Engine - Line-Item Generator
// =============================================================================
//
// Generate produces demo collections with a fixed shape and randomized
// quantities. It mirrors the pre-alert batches the dashboard ships with:
//
//   | idx  | dnNo          | partNo     | productName                     |
//   |------|---------------|------------|---------------------------------|
//   | even | QBF{6453800+i}| MG874AH/A  | IPHONE 17 PRO DEEP BLUE 256GB   |
//   | odd  | QBF{6453800+i}| MG854AH/A  | IPHONE 17 PRO SILVER 256GB      |
//
// Quantities are uniform in [MinQuantity, MaxQuantity]. Everything else is
// constant per invocation.
//
// =============================================================================

package shipment

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/rotisserie/eris"
)

// =============================================================================
// GENERATOR DEFAULTS
// =============================================================================

const (
	// MinQuantity and MaxQuantity bound generated quantities (inclusive).
	MinQuantity = 10
	MaxQuantity = 209

	// DefaultUnitPrice is the USD unit price used when none is given.
	DefaultUnitPrice = 1086.94

	// DefaultHarmonizedCode is the HS code stamped on every generated item.
	DefaultHarmonizedCode = "851713000000"

	// DefaultDispatchCountry and DefaultBookingReference come from the
	// demo pre-alert submission.
	DefaultDispatchCountry  = "CN"
	DefaultBookingReference = "BK019092"

	documentNumberBase = 6453800
)

// Product is a part number / description pair.
type Product struct {
	PartNumber  string
	ProductName string
}

// DefaultProducts alternate by index parity: even -> [0], odd -> [1].
var DefaultProducts = [2]Product{
	{PartNumber: "MG874AH/A", ProductName: "IPHONE 17 PRO DEEP BLUE 256GB"},
	{PartNumber: "MG854AH/A", ProductName: "IPHONE 17 PRO SILVER 256GB"},
}

// =============================================================================
// OPTIONS
// =============================================================================

type generatorConfig struct {
	rng       *rand.Rand
	unitPrice float64
	products  [2]Product
}

// Option configures Generate.
type Option func(*generatorConfig)

// WithRand sets the random source for quantities. Use a seeded source in
// tests to get repeatable collections.
func WithRand(r *rand.Rand) Option {
	return func(c *generatorConfig) { c.rng = r }
}

// WithSeed is shorthand for WithRand with a PCG source.
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// WithUnitPrice sets the constant unit price for the batch.
func WithUnitPrice(price float64) Option {
	return func(c *generatorConfig) { c.unitPrice = price }
}

// WithProducts overrides the even/odd product pair.
func WithProducts(even, odd Product) Option {
	return func(c *generatorConfig) { c.products = [2]Product{even, odd} }
}

// =============================================================================
// GENERATE
// =============================================================================

// Generate produces exactly count items with ids "{batchPrefix}-{index}".
//
// PARAMETERS:
//   - count: number of items; 0 yields an empty collection.
//   - batchPrefix: id prefix, e.g. "S1".
//
// RETURNS:
//   - The generated collection.
//   - ErrInvalidArgument if count is negative or the unit price is NaN,
//     negative or above MaxAmount.
func Generate(count int, batchPrefix string, opts ...Option) (Collection, error) {
	if count < 0 {
		return nil, eris.Wrapf(ErrInvalidArgument, "count must be non-negative, got %d", count)
	}

	cfg := generatorConfig{
		unitPrice: DefaultUnitPrice,
		products:  DefaultProducts,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if math.IsNaN(cfg.unitPrice) || cfg.unitPrice < 0 || cfg.unitPrice > MaxAmount {
		return nil, eris.Wrapf(ErrInvalidArgument, "unit price must be in [0, %v], got %v", MaxAmount, cfg.unitPrice)
	}

	intN := rand.IntN
	if cfg.rng != nil {
		intN = cfg.rng.IntN
	}

	items := make(Collection, count)
	for i := 0; i < count; i++ {
		product := cfg.products[i%2]
		item := LineItem{
			ID:               fmt.Sprintf("%s-%d", batchPrefix, i),
			DocumentNumber:   fmt.Sprintf("QBF%d", documentNumberBase+i),
			PartNumber:       product.PartNumber,
			ProductName:      product.ProductName,
			HarmonizedCode:   DefaultHarmonizedCode,
			Quantity:         MinQuantity + intN(MaxQuantity-MinQuantity+1),
			UnitPrice:        cfg.unitPrice,
			DispatchCountry:  DefaultDispatchCountry,
			BookingReference: DefaultBookingReference,
			Uploaded:         true,
		}
		items[i] = item.WithPrices()
	}

	return items, nil
}
