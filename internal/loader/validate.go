package loader

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/prealert-engine/internal/shipment"
)

// =============================================================================
// ROW ERRORS
// =============================================================================

// RowError is a data problem found in one source row. Rows with errors are
// left out of the loaded collection; the errors are collected, never raised.
type RowError struct {
	// File is the source file path.
	File string `yaml:"file" json:"file"`

	// Row is the 1-based source row or line number.
	Row int `yaml:"row" json:"row"`

	// Header is the source column, empty for row-level problems.
	Header string `yaml:"header,omitempty" json:"header,omitempty"`

	// Field is the line-item field the column maps to.
	Field shipment.Field `yaml:"field,omitempty" json:"field,omitempty"`

	// Value is the offending value after transformation.
	Value string `yaml:"value,omitempty" json:"value,omitempty"`

	// Rule names the check that failed: required, max_length, data_type,
	// range, duplicate_id, transform.
	Rule string `yaml:"rule" json:"rule"`

	// Message is a human-readable description.
	Message string `yaml:"message" json:"message"`
}

// Error implements the error interface.
func (e *RowError) Error() string {
	if e.Header == "" {
		return fmt.Sprintf("%s row %d: %s", e.File, e.Row, e.Message)
	}
	return fmt.Sprintf("%s row %d, column '%s': %s (value: '%s')", e.File, e.Row, e.Header, e.Message, e.Value)
}

// FormatErrors renders a numbered list of row errors.
func FormatErrors(errs []*RowError) string {
	if len(errs) == 0 {
		return "No validation errors."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Validation completed with %d error(s):\n\n", len(errs))
	for i, err := range errs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, err.Error())
	}
	return b.String()
}

// =============================================================================
// DATA TYPE VALIDATION
// =============================================================================

// naturalType is the data type a field requires regardless of mapping.
func naturalType(f shipment.Field) string {
	switch f {
	case shipment.FieldQuantity:
		return "integer"
	case shipment.FieldUnitPrice, shipment.FieldTotalPriceUSD, shipment.FieldTotalPriceSAR:
		return "decimal"
	default:
		return "string"
	}
}

// validateDataType returns an error message, or "" when value fits.
// Empty values are handled by the required check.
func validateDataType(value, dataType string) string {
	if value == "" {
		return ""
	}

	switch dataType {
	case "integer":
		d, err := decimal.NewFromString(value)
		if err != nil || !d.IsInteger() {
			return fmt.Sprintf("Value '%s' is not a valid integer", value)
		}
	case "decimal":
		if _, err := decimal.NewFromString(value); err != nil {
			return fmt.Sprintf("Value '%s' is not a valid decimal number", value)
		}
	case "alphanumeric":
		for _, r := range value {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
				return fmt.Sprintf("Value '%s' contains non-alphanumeric characters", value)
			}
		}
	case "alpha":
		for _, r := range value {
			if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
				return fmt.Sprintf("Value '%s' contains non-alphabetic characters", value)
			}
		}
	}
	return ""
}

// validateLength returns an error message when value exceeds maxLength runes.
func validateLength(value string, maxLength int) string {
	if maxLength > 0 && len([]rune(value)) > maxLength {
		return fmt.Sprintf("Value exceeds maximum length of %d characters", maxLength)
	}
	return ""
}
