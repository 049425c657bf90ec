package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ginjaninja78/prealert-engine/internal/shipment"
	"github.com/ginjaninja78/prealert-engine/internal/summary"
	"github.com/ginjaninja78/prealert-engine/internal/xmlwriter"
)

// =============================================================================
// TERMINAL STYLES
// =============================================================================

var (
	colorAccent  = lipgloss.Color("#2196F3")
	colorDanger  = lipgloss.Color("#e53935")
	colorSuccess = lipgloss.Color("#8BC34A")
	colorMuted   = lipgloss.Color("#8a8f98")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	flaggedStyle = cellStyle.Foreground(colorDanger).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	okBadge      = lipgloss.NewStyle().Bold(true).Foreground(colorSuccess)
	failBadge    = lipgloss.NewStyle().Bold(true).Foreground(colorDanger)
)

// printer formats counts and money with thousands separators.
var printer = message.NewPrinter(language.English)

// tableColumns are the line-item fields printed by the item table.
var tableColumns = []struct {
	field shipment.Field
	title string
}{
	{shipment.FieldID, "ID"},
	{shipment.FieldDocumentNumber, "DN No"},
	{shipment.FieldPartNumber, "Part No"},
	{shipment.FieldProductName, "Product Name"},
	{shipment.FieldCountryOfOrigin, "COO"},
	{shipment.FieldHarmonizedCode, "HS Code"},
	{shipment.FieldQuantity, "QTY"},
	{shipment.FieldUnitPrice, "Unit Price"},
	{shipment.FieldTotalPriceUSD, "Total (USD)"},
	{shipment.FieldTotalPriceSAR, "Total (SAR)"},
}

// =============================================================================
// ITEM TABLE
// =============================================================================

// itemTable renders line items as an aligned table. Cells whose field is
// in the row's flagged set are highlighted.
type itemTable struct {
	rows    [][]string
	flagged []map[shipment.Field]bool
	labels  []string
}

func (t *itemTable) add(label string, item shipment.LineItem, flagged []shipment.Field) {
	row := make([]string, len(tableColumns))
	for i, c := range tableColumns {
		row[i] = cellText(c.field, item.Value(c.field))
	}
	set := make(map[shipment.Field]bool, len(flagged))
	for _, f := range flagged {
		set[f] = true
	}
	t.rows = append(t.rows, row)
	t.flagged = append(t.flagged, set)
	t.labels = append(t.labels, label)
}

func (t *itemTable) render(w io.Writer) {
	withLabels := false
	for _, l := range t.labels {
		if l != "" {
			withLabels = true
			break
		}
	}

	widths := make([]int, len(tableColumns))
	for i, c := range tableColumns {
		widths[i] = lipgloss.Width(c.title)
	}
	labelWidth := 0
	for r, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
		labelWidth = max(labelWidth, lipgloss.Width(t.labels[r]))
	}

	var sb strings.Builder
	if withLabels {
		sb.WriteString(headerStyle.Width(labelWidth + 2).Render(""))
	}
	for i, c := range tableColumns {
		sb.WriteString(headerStyle.Width(widths[i] + 2).Render(c.title))
	}
	sb.WriteString("\n")

	for r, row := range t.rows {
		if withLabels {
			sb.WriteString(mutedStyle.Padding(0, 1).Width(labelWidth + 2).Render(t.labels[r]))
		}
		for i, cell := range row {
			style := cellStyle
			if t.flagged[r][tableColumns[i].field] {
				style = flaggedStyle
			}
			if isNumericColumn(tableColumns[i].field) {
				style = style.Align(lipgloss.Right)
			}
			sb.WriteString(style.Width(widths[i] + 2).Render(cell))
		}
		sb.WriteString("\n")
	}

	fmt.Fprint(w, sb.String())
}

func isNumericColumn(f shipment.Field) bool {
	switch f {
	case shipment.FieldQuantity, shipment.FieldUnitPrice, shipment.FieldTotalPriceUSD, shipment.FieldTotalPriceSAR:
		return true
	}
	return false
}

func cellText(f shipment.Field, v shipment.FieldValue) string {
	if v.Kind == shipment.KindNumber && f != shipment.FieldQuantity {
		return printer.Sprintf("%.2f", v.Num)
	}
	return xmlwriter.FormatValue(f, v)
}

// printItems writes a titled item table followed by its totals.
func printItems(w io.Writer, title string, items shipment.Collection) {
	fmt.Fprintln(w, titleStyle.Render(title))
	if len(items) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  no line items"))
	} else {
		var t itemTable
		for _, item := range items {
			t.add("", item, nil)
		}
		t.render(w)
	}
	printSummary(w, summary.Summarize(items))
}

// printSummary writes the totals line shown under a grid.
func printSummary(w io.Writer, s summary.Summary) {
	fmt.Fprintln(w, printer.Sprintf("  Items: %d   QTY: %d   USD: %.2f   SAR: %.2f",
		s.ItemCount, s.TotalQuantity, s.TotalPriceUSD, s.TotalPriceSAR))
}
