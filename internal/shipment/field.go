package shipment

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Field names a comparable line-item attribute. The names match the column
// keys used by the pre-alert and 810 grids.
type Field string

const (
	FieldID              Field = "id"
	FieldDocumentNumber  Field = "dnNo"
	FieldPartNumber      Field = "partNo"
	FieldProductName     Field = "productName"
	FieldCountryOfOrigin Field = "coo"
	FieldHarmonizedCode  Field = "hsCode"
	FieldQuantity        Field = "qty"
	FieldUnitPrice       Field = "unitPrice"
	FieldTotalPriceUSD   Field = "totalPriceUSD"
	FieldTotalPriceSAR   Field = "totalPriceSAR"

	FieldDispatchCountry  Field = "cn"
	FieldBookingReference Field = "bookingRef"
)

// AllFields lists every comparable field in grid column order, followed by
// the submission details.
var AllFields = []Field{
	FieldID,
	FieldDocumentNumber,
	FieldPartNumber,
	FieldProductName,
	FieldCountryOfOrigin,
	FieldHarmonizedCode,
	FieldQuantity,
	FieldUnitPrice,
	FieldTotalPriceUSD,
	FieldTotalPriceSAR,
	FieldDispatchCountry,
	FieldBookingReference,
}

// ValueKind tags the type held by a FieldValue.
type ValueKind int

const (
	KindMissing ValueKind = iota
	KindNumber
	KindString
)

// FieldValue is a tagged read of one field.
type FieldValue struct {
	Kind ValueKind
	Num  float64
	Str  string
}

// Number builds a numeric FieldValue.
func Number(v float64) FieldValue { return FieldValue{Kind: KindNumber, Num: v} }

// String builds a string FieldValue.
func String(v string) FieldValue { return FieldValue{Kind: KindString, Str: v} }

// Valid reports whether f names a known field.
func (f Field) Valid() bool {
	for _, known := range AllFields {
		if f == known {
			return true
		}
	}
	return false
}

// ParseField resolves a field name case-insensitively ("QTY", "unitprice").
func ParseField(name string) (Field, error) {
	name = strings.TrimSpace(name)
	for _, known := range AllFields {
		if strings.EqualFold(string(known), name) {
			return known, nil
		}
	}
	return "", eris.Wrapf(ErrInvalidArgument, "unknown line-item field %q", name)
}

// ParseFields resolves a list of field names, failing on the first unknown one.
func ParseFields(names []string) ([]Field, error) {
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		f, err := ParseField(name)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// Value reads a field from the item. Unknown fields yield KindMissing.
func (li LineItem) Value(f Field) FieldValue {
	switch f {
	case FieldID:
		return String(li.ID)
	case FieldDocumentNumber:
		return String(li.DocumentNumber)
	case FieldPartNumber:
		return String(li.PartNumber)
	case FieldProductName:
		return String(li.ProductName)
	case FieldCountryOfOrigin:
		return String(li.CountryOfOrigin)
	case FieldHarmonizedCode:
		return String(li.HarmonizedCode)
	case FieldQuantity:
		return Number(float64(li.Quantity))
	case FieldUnitPrice:
		return Number(li.UnitPrice)
	case FieldTotalPriceUSD:
		return Number(li.TotalPriceUSD)
	case FieldTotalPriceSAR:
		return Number(li.TotalPriceSAR)
	case FieldDispatchCountry:
		return String(li.DispatchCountry)
	case FieldBookingReference:
		return String(li.BookingReference)
	default:
		return FieldValue{}
	}
}
