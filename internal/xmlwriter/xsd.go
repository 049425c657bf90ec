package xmlwriter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ginjaninja78/prealert-engine/internal/shipment"
)

// =============================================================================
// XSD GENERATION
// =============================================================================

// GenerateXSD creates the XSD schema of the shipment document for the given
// element names.
//
// CUSTOMIZATION:
//
//	This function generates a basic XSD. Modify it to add:
//	- Pattern restrictions (MAWB "NNN-NNNNNNNN", dnNo "QBF...")
//	- Enumerations for direction
func GenerateXSD(options GenerateOptions) ([]byte, error) {
	options = withDefaults(options)
	var buffer bytes.Buffer

	buffer.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
`)

	fmt.Fprintf(&buffer, `  <xs:element name="%s">
    <xs:complexType>
      <xs:sequence>
        <xs:element ref="%s" minOccurs="0" maxOccurs="unbounded"/>
      </xs:sequence>
      <xs:anyAttribute processContents="lax"/>
    </xs:complexType>
  </xs:element>

`, options.RootElement, options.ShipmentElement)

	fmt.Fprintf(&buffer, `  <xs:element name="%s">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="direction" type="xs:string" minOccurs="0"/>
        <xs:element name="summary" minOccurs="0">
          <xs:complexType>
            <xs:sequence>
              <xs:element name="itemCount" type="xs:nonNegativeInteger"/>
              <xs:element name="totalQuantity" type="xs:nonNegativeInteger"/>
              <xs:element name="totalPriceUSD" type="xs:decimal"/>
              <xs:element name="totalPriceSAR" type="xs:decimal"/>
            </xs:sequence>
          </xs:complexType>
        </xs:element>
        <xs:element ref="%s" minOccurs="0" maxOccurs="unbounded"/>
      </xs:sequence>
      <xs:attribute name="%s" type="xs:positiveInteger" use="required"/>
      <xs:attribute name="id" type="xs:string" use="required"/>
    </xs:complexType>
  </xs:element>

`, options.ShipmentElement, options.LineItemElement, options.IndexAttribute)

	fmt.Fprintf(&buffer, `  <xs:element name="%s">
    <xs:complexType>
      <xs:sequence>
`, options.LineItemElement)

	for _, f := range shipment.AllFields {
		writeXSDElement(&buffer, f, 4)
	}
	writeXSDElementType(&buffer, "mismatch", "xs:boolean", "0", 4)

	fmt.Fprintf(&buffer, `      </xs:sequence>
      <xs:attribute name="%s" type="xs:positiveInteger" use="required"/>
    </xs:complexType>
  </xs:element>

</xs:schema>
`, options.IndexAttribute)

	return buffer.Bytes(), nil
}

// writeXSDElement writes the element definition of one line-item field.
// Numeric fields are always present; string fields are omitted when empty.
func writeXSDElement(buffer *bytes.Buffer, f shipment.Field, indentLevel int) {
	xsdType := getXSDType(f)
	minOccurs := "0"
	if xsdType != "xs:string" {
		minOccurs = "1"
	}
	writeXSDElementType(buffer, string(f), xsdType, minOccurs, indentLevel)
}

func writeXSDElementType(buffer *bytes.Buffer, name, xsdType, minOccurs string, indentLevel int) {
	indent := strings.Repeat("  ", indentLevel)
	fmt.Fprintf(buffer, "%s<xs:element name=\"%s\" type=\"%s\" minOccurs=\"%s\"/>\n", indent, name, xsdType, minOccurs)
}

// getXSDType maps line-item fields to XSD types.
func getXSDType(f shipment.Field) string {
	switch f {
	case shipment.FieldQuantity:
		return "xs:nonNegativeInteger"
	case shipment.FieldUnitPrice, shipment.FieldTotalPriceUSD, shipment.FieldTotalPriceSAR:
		return "xs:decimal"
	default:
		return "xs:string"
	}
}
