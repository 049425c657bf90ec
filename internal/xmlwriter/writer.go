// =============================================================================
// Pre-Alert Engine - XML Writer Module
// =============================================================================
//
// This module renders loaded shipments and mismatch comparisons as XML for
// the downstream customs and finance systems.
//
// XML STRUCTURE:
//   The shipment document follows this nesting pattern:
//
//   <shipments dataset="810">                 <!-- Root element -->
//     <shipment n="1" id="176-16884485">      <!-- Shipment (MAWB) with index -->
//       <direction>Inbound</direction>
//       <summary>                             <!-- Totals of the items below -->
//         <itemCount>2</itemCount>
//         <totalQuantity>14</totalQuantity>
//         <totalPriceUSD>15217.16</totalPriceUSD>
//         <totalPriceSAR>57064.35</totalPriceSAR>
//       </summary>
//       <lineItem n="1">                      <!-- Line item with global index -->
//         <id>810-0</id>
//         <dnNo>QBF6453800</dnNo>
//         <qty>12</qty>
//       </lineItem>
//     </shipment>
//     <shipment n="2" id="176-16406143">
//       <lineItem n="3">...</lineItem>        <!-- Note: global numbering continues -->
//     </shipment>
//   </shipments>
//
// The mismatch report is described in mismatch.go.
//
// CUSTOMIZATION:
//   - Rename elements via GenerateOptions
//   - Add root attributes (namespaces, source system)
//   - Change the numbering scheme (global vs. per-shipment)
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/prealert-engine/internal/shipment"
	"github.com/ginjaninja78/prealert-engine/internal/summary"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML generation.
type GenerateOptions struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// XMLVersion is the XML version for the declaration.
	// Default: "1.0"
	XMLVersion string

	// Encoding is the encoding for the XML declaration.
	// Default: "UTF-8"
	Encoding string

	// RootAttributes are additional attributes for the root element, written
	// in key order. Example: {"xmlns": "http://example.com/prealert"}
	RootAttributes map[string]string

	// LineItemNumberingGlobal determines if line item numbering is global.
	// If true: line items are numbered 1, 2, 3, 4... across all shipments.
	// If false: line items restart at 1 for each shipment.
	// Default: true
	LineItemNumberingGlobal bool

	// IncludeSummary adds a <summary> block to every shipment.
	// Default: true
	IncludeSummary bool

	// Element names. Defaults: "shipments", "shipment", "lineItem".
	RootElement     string
	ShipmentElement string
	LineItemElement string

	// IndexAttribute is the attribute name for shipment and line item
	// indexes. Default: "n"
	IndexAttribute string
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                  "  ",
		IncludeXMLDeclaration:   true,
		XMLVersion:              "1.0",
		Encoding:                "UTF-8",
		RootAttributes:          make(map[string]string),
		LineItemNumberingGlobal: true,
		IncludeSummary:          true,
		RootElement:             "shipments",
		ShipmentElement:         "shipment",
		LineItemElement:         "lineItem",
		IndexAttribute:          "n",
	}
}

// =============================================================================
// INPUT TYPES
// =============================================================================

// Shipment is one shipment to render.
type Shipment struct {
	// ID is the MAWB number.
	ID        string
	Direction string
	Items     shipment.Collection
}

// Document is the content of one shipment XML file.
type Document struct {
	// Dataset is the source dataset code, written as a root attribute when set.
	Dataset string

	// Source is the input file, written as a root attribute when set.
	Source string

	Shipments []Shipment
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Generate creates a shipment XML document with the default options.
//
// PARAMETERS:
//   - doc: The shipments to render, in output order.
//
// RETURNS:
//   - The XML document as a byte slice.
//   - An error if generation fails.
//
// GENERATION PROCESS:
//  1. Create the root element with dataset and source attributes
//  2. For each shipment:
//     a. Create the shipment element with index and id attributes
//     b. Add the direction and summary block
//     c. Add one line item element per item
//  3. Write the tree with indentation
func Generate(doc Document) ([]byte, error) {
	return GenerateWithOptions(doc, DefaultGenerateOptions())
}

// GenerateWithOptions creates a shipment XML document with custom options.
func GenerateWithOptions(doc Document, options GenerateOptions) ([]byte, error) {
	options = withDefaults(options)

	attrs := make(map[string]string, len(options.RootAttributes)+2)
	for k, v := range options.RootAttributes {
		attrs[k] = v
	}
	if doc.Dataset != "" {
		attrs["dataset"] = doc.Dataset
	}
	if doc.Source != "" {
		attrs["source"] = doc.Source
	}

	root := newElement(options.RootElement, attrs)

	lineItemIndex := 1
	for i, s := range doc.Shipments {
		if !options.LineItemNumberingGlobal {
			lineItemIndex = 1
		}
		root.Children = append(root.Children, buildShipmentElement(i+1, s, options, &lineItemIndex))
	}

	return render(root, options)
}

// withDefaults fills zero-valued names so partially built options still work.
func withDefaults(options GenerateOptions) GenerateOptions {
	d := DefaultGenerateOptions()
	if options.XMLVersion == "" {
		options.XMLVersion = d.XMLVersion
	}
	if options.Encoding == "" {
		options.Encoding = d.Encoding
	}
	if options.RootElement == "" {
		options.RootElement = d.RootElement
	}
	if options.ShipmentElement == "" {
		options.ShipmentElement = d.ShipmentElement
	}
	if options.LineItemElement == "" {
		options.LineItemElement = d.LineItemElement
	}
	if options.IndexAttribute == "" {
		options.IndexAttribute = d.IndexAttribute
	}
	return options
}

// =============================================================================
// XML DOCUMENT BUILDING
// =============================================================================

// buildShipmentElement constructs a shipment element.
//
// STRUCTURE:
//
//	<shipment n="1" id="176-16884485">
//	  <direction>Inbound</direction>
//	  <summary>...</summary>
//	  <lineItem n="1">...</lineItem>
//	</shipment>
func buildShipmentElement(index int, s Shipment, options GenerateOptions, lineItemIndex *int) XMLElement {
	element := XMLElement{
		Name: options.ShipmentElement,
		Attributes: []Attr{
			{Name: options.IndexAttribute, Value: strconv.Itoa(index)},
			{Name: "id", Value: s.ID},
		},
	}

	if s.Direction != "" {
		element.Children = append(element.Children, createSimpleElement("direction", s.Direction))
	}
	if options.IncludeSummary {
		element.Children = append(element.Children, buildSummaryElement("summary", summary.Summarize(s.Items)))
	}

	for _, item := range s.Items {
		element.Children = append(element.Children, buildLineItemElement(options.LineItemElement, *lineItemIndex, item, options))
		(*lineItemIndex)++
	}

	return element
}

// buildLineItemElement constructs a line item element. Empty string fields
// are omitted; numeric fields are always written.
func buildLineItemElement(name string, index int, item shipment.LineItem, options GenerateOptions) XMLElement {
	element := XMLElement{
		Name:       name,
		Attributes: []Attr{{Name: options.IndexAttribute, Value: strconv.Itoa(index)}},
	}
	element.Children = itemFieldElements(item)
	return element
}

func itemFieldElements(item shipment.LineItem) []XMLElement {
	children := make([]XMLElement, 0, len(shipment.AllFields)+1)
	for _, f := range shipment.AllFields {
		v := item.Value(f)
		if v.Kind == shipment.KindString && v.Str == "" {
			continue
		}
		children = append(children, createSimpleElement(string(f), FormatValue(f, v)))
	}
	if item.Mismatch != nil {
		children = append(children, createSimpleElement("mismatch", strconv.FormatBool(*item.Mismatch)))
	}
	return children
}

// buildSummaryElement renders a Summary block under the given element name.
func buildSummaryElement(name string, s summary.Summary) XMLElement {
	return XMLElement{
		Name: name,
		Children: []XMLElement{
			createSimpleElement("itemCount", strconv.Itoa(s.ItemCount)),
			createSimpleElement("totalQuantity", strconv.Itoa(s.TotalQuantity)),
			createSimpleElement("totalPriceUSD", FormatMoney(s.TotalPriceUSD)),
			createSimpleElement("totalPriceSAR", FormatMoney(s.TotalPriceSAR)),
		},
	}
}

// =============================================================================
// VALUE FORMATTING
// =============================================================================

// FormatMoney renders an amount with exactly two decimals.
func FormatMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatValue renders a field value: money with two decimals, quantities as
// integers, strings as is. Missing values render empty.
func FormatValue(f shipment.Field, v shipment.FieldValue) string {
	switch v.Kind {
	case shipment.KindString:
		return v.Str
	case shipment.KindNumber:
		if f == shipment.FieldQuantity {
			return strconv.FormatFloat(v.Num, 'f', -1, 64)
		}
		return FormatMoney(v.Num)
	default:
		return ""
	}
}

// =============================================================================
// ELEMENT TREE AND SERIALIZATION
// =============================================================================

// Attr is an XML attribute.
type Attr struct {
	Name  string
	Value string
}

// XMLElement is a generic XML element. An element has either a text value
// or children.
type XMLElement struct {
	Name       string
	Attributes []Attr
	Value      string
	Children   []XMLElement
}

// createSimpleElement creates a simple XML element with a text value.
func createSimpleElement(name, value string) XMLElement {
	return XMLElement{Name: name, Value: value}
}

// newElement creates an element with attributes written in key order.
func newElement(name string, attrs map[string]string) XMLElement {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	element := XMLElement{Name: name}
	for _, k := range keys {
		element.Attributes = append(element.Attributes, Attr{Name: k, Value: attrs[k]})
	}
	return element
}

// render writes the declaration and the element tree.
func render(root XMLElement, options GenerateOptions) ([]byte, error) {
	var buffer bytes.Buffer

	if options.IncludeXMLDeclaration {
		fmt.Fprintf(&buffer, "<?xml version=\"%s\" encoding=\"%s\"?>\n", options.XMLVersion, options.Encoding)
	}

	writeElement(&buffer, root, options.Indent, 0)
	return buffer.Bytes(), nil
}

// writeElement writes an XML element to the buffer with indentation.
func writeElement(buffer *bytes.Buffer, element XMLElement, indent string, level int) {
	for i := 0; i < level; i++ {
		buffer.WriteString(indent)
	}

	buffer.WriteString("<")
	buffer.WriteString(element.Name)
	for _, attr := range element.Attributes {
		fmt.Fprintf(buffer, " %s=\"%s\"", attr.Name, escapeXML(attr.Value))
	}

	if len(element.Children) == 0 && element.Value == "" {
		buffer.WriteString("/>\n")
		return
	}

	buffer.WriteString(">")

	if len(element.Children) == 0 {
		buffer.WriteString(escapeXML(element.Value))
	} else {
		buffer.WriteString("\n")
		for _, child := range element.Children {
			writeElement(buffer, child, indent, level+1)
		}
		for i := 0; i < level; i++ {
			buffer.WriteString(indent)
		}
	}

	buffer.WriteString("</")
	buffer.WriteString(element.Name)
	buffer.WriteString(">\n")
}

// escapeXML escapes special characters for XML.
func escapeXML(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		switch r {
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '"':
			buffer.WriteString("&quot;")
		case '\'':
			buffer.WriteString("&apos;")
		default:
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}
