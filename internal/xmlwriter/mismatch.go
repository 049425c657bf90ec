package xmlwriter

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/ginjaninja78/prealert-engine/internal/mismatch"
	"github.com/ginjaninja78/prealert-engine/internal/shipment"
	"github.com/ginjaninja78/prealert-engine/internal/summary"
)

// =============================================================================
// MISMATCH REPORT
// =============================================================================
//
//   <mismatchReport left="810" right="pre-alert" pairing="position"
//                   tolerance="0" fields="dnNo partNo qty unitPrice totalPriceUSD">
//     <totals side="left">...</totals>
//     <totals side="right">...</totals>
//     <discrepancy>...</discrepancy>          <!-- left minus right -->
//     <pair n="4" leftIndex="3" rightIndex="3" mismatch="true"
//           flagged="unitPrice totalPriceUSD">
//       <field name="unitPrice" left="1086.94" right="0.00" mismatch="true"/>
//       ...
//     </pair>
//     <unmatched n="1" side="left" index="10">
//       <id>S1-10</id>
//       ...
//     </unmatched>
//   </mismatchReport>
//
// =============================================================================

// MismatchReport is the content of one mismatch XML file.
type MismatchReport struct {
	// LeftName and RightName label the two sides, e.g. "810" and "pre-alert".
	LeftName  string
	RightName string

	// Left and Right are the totals of each full input collection.
	Left  summary.Summary
	Right summary.Summary

	Comparison *mismatch.Comparison

	// OnlyFlagged leaves agreeing pairs out of the document.
	OnlyFlagged bool
}

// GenerateMismatchReport renders a comparison with the default options.
func GenerateMismatchReport(report MismatchReport) ([]byte, error) {
	return GenerateMismatchReportWithOptions(report, DefaultGenerateOptions())
}

// GenerateMismatchReportWithOptions renders a comparison. Only the
// declaration, indent and root attribute options apply.
func GenerateMismatchReportWithOptions(report MismatchReport, options GenerateOptions) ([]byte, error) {
	c := report.Comparison
	if c == nil {
		return nil, eris.New("mismatch report has no comparison")
	}
	options = withDefaults(options)

	attrs := make(map[string]string, len(options.RootAttributes)+5)
	for k, v := range options.RootAttributes {
		attrs[k] = v
	}
	attrs["pairing"] = string(c.Pairing)
	attrs["tolerance"] = strconv.FormatFloat(c.Tolerance, 'f', -1, 64)
	attrs["fields"] = joinFields(c.Fields)
	if report.LeftName != "" {
		attrs["left"] = report.LeftName
	}
	if report.RightName != "" {
		attrs["right"] = report.RightName
	}

	root := newElement("mismatchReport", attrs)

	leftTotals := buildSummaryElement("totals", report.Left)
	leftTotals.Attributes = []Attr{{Name: "side", Value: string(mismatch.SideLeft)}}
	rightTotals := buildSummaryElement("totals", report.Right)
	rightTotals.Attributes = []Attr{{Name: "side", Value: string(mismatch.SideRight)}}
	root.Children = append(root.Children, leftTotals, rightTotals, buildDiscrepancyElement(summary.Diff(report.Left, report.Right)))

	for i, r := range c.Results {
		if report.OnlyFlagged && !r.Flagged() {
			continue
		}
		root.Children = append(root.Children, buildPairElement(i+1, r, c.Fields))
	}

	for i, u := range c.Unmatched {
		element := XMLElement{
			Name: "unmatched",
			Attributes: []Attr{
				{Name: "n", Value: strconv.Itoa(i + 1)},
				{Name: "side", Value: string(u.Side)},
				{Name: "index", Value: strconv.Itoa(u.Index)},
			},
			Children: itemFieldElements(u.Item),
		}
		root.Children = append(root.Children, element)
	}

	return render(root, options)
}

// buildPairElement renders one compared pair with a field element per
// compared field.
func buildPairElement(n int, r mismatch.Result, fields []shipment.Field) XMLElement {
	element := XMLElement{
		Name: "pair",
		Attributes: []Attr{
			{Name: "n", Value: strconv.Itoa(n)},
			{Name: "leftIndex", Value: strconv.Itoa(r.Index)},
			{Name: "rightIndex", Value: strconv.Itoa(r.RightIndex)},
			{Name: "mismatch", Value: strconv.FormatBool(r.Flagged())},
		},
	}
	if r.Flagged() {
		element.Attributes = append(element.Attributes, Attr{Name: "flagged", Value: joinFields(r.Fields)})
	}

	for _, f := range fields {
		var left, right string
		if r.Left != nil {
			left = FormatValue(f, r.Left.Value(f))
		}
		if r.Right != nil {
			right = FormatValue(f, r.Right.Value(f))
		}
		element.Children = append(element.Children, XMLElement{
			Name: "field",
			Attributes: []Attr{
				{Name: "name", Value: string(f)},
				{Name: "left", Value: left},
				{Name: "right", Value: right},
				{Name: "mismatch", Value: strconv.FormatBool(r.Has(f))},
			},
		})
	}
	return element
}

func buildDiscrepancyElement(d summary.Discrepancy) XMLElement {
	return XMLElement{
		Name: "discrepancy",
		Children: []XMLElement{
			createSimpleElement("itemCount", strconv.Itoa(d.ItemCount)),
			createSimpleElement("totalQuantity", strconv.Itoa(d.TotalQuantity)),
			createSimpleElement("totalPriceUSD", FormatMoney(d.TotalPriceUSD)),
			createSimpleElement("totalPriceSAR", FormatMoney(d.TotalPriceSAR)),
		},
	}
}

func joinFields(fields []shipment.Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return strings.Join(names, " ")
}
