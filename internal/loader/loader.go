// =============================================================================
// Pre-Alert Engine - Dataset Loader
// =============================================================================
//
// This module turns a parsed source file into shipment collections.
//
// LOADING PROCESS:
//  1. Parse the file (CSV, XLSX or YAML) into rows
//  2. Apply the dataset's transformation rules to each row
//  3. Map source columns onto line-item fields
//  4. Fill static fields
//  5. Validate and convert values; recompute missing totals
//  6. Group items into shipments and sort within each shipment
//
// Rows that fail validation are skipped and reported as RowErrors. Only
// problems with the file itself (unreadable, missing required column) are
// returned as errors.
//
// =============================================================================

package loader

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ginjaninja78/prealert-engine/internal/config"
	"github.com/ginjaninja78/prealert-engine/internal/csvparser"
	"github.com/ginjaninja78/prealert-engine/internal/shipment"
	"github.com/ginjaninja78/prealert-engine/internal/types"
	"github.com/ginjaninja78/prealert-engine/internal/xlsxparser"
)

// defaultIDPrefix is used when a dataset has neither id_prefix nor code.
const defaultIDPrefix = "ITEM"

// headerAliases maps normalized portal headers onto fields. Field names
// themselves ("dnNo", "QTY") always match as well.
var headerAliases = map[string]shipment.Field{
	"dn no":             shipment.FieldDocumentNumber,
	"dn number":         shipment.FieldDocumentNumber,
	"delivery note":     shipment.FieldDocumentNumber,
	"part no":           shipment.FieldPartNumber,
	"part number":       shipment.FieldPartNumber,
	"product name":      shipment.FieldProductName,
	"description":       shipment.FieldProductName,
	"country of origin": shipment.FieldCountryOfOrigin,
	"hs code":           shipment.FieldHarmonizedCode,
	"quantity":          shipment.FieldQuantity,
	"unit price":        shipment.FieldUnitPrice,
	"total price":       shipment.FieldTotalPriceUSD,
	"total price (usd)": shipment.FieldTotalPriceUSD,
	"total price (sar)": shipment.FieldTotalPriceSAR,
	"dispatch country":  shipment.FieldDispatchCountry,
	"booking ref":       shipment.FieldBookingReference,
	"booking reference": shipment.FieldBookingReference,
}

// =============================================================================
// RESULT TYPES
// =============================================================================

// Batch is the line items of one shipment (MAWB) within a file.
type Batch struct {
	ShipmentID string
	Items      shipment.Collection
}

// Result is the outcome of loading one file.
type Result struct {
	SourceFile string
	Dataset    string
	Direction  string

	// Shipments are in order of first appearance in the file.
	Shipments []Batch

	// Errors are the rows that were skipped.
	Errors []*RowError

	// Rows is the number of data rows read, accepted or not.
	Rows int
}

// Items returns every loaded item across shipments, in shipment order.
func (r *Result) Items() shipment.Collection {
	var n int
	for _, b := range r.Shipments {
		n += len(b.Items)
	}
	out := make(shipment.Collection, 0, n)
	for _, b := range r.Shipments {
		out = append(out, b.Items...)
	}
	return out
}

// =============================================================================
// LOADER
// =============================================================================

// Loader loads the files of one dataset.
type Loader struct {
	dataset     *config.DatasetConfig
	mappings    []config.ColumnMapping
	transformer *Transformer
	logger      *zap.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New builds a loader for a dataset. The column mapping comes from the
// dataset's mapping template when set, then from its column_mapping list.
// With neither, headers are matched to fields by name per file.
func New(dataset *config.DatasetConfig, opts ...Option) (*Loader, error) {
	if dataset == nil {
		return nil, eris.New("dataset config is nil")
	}

	transformer, err := NewTransformer(dataset.TransformationRules)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset %s", dataset.Code)
	}

	l := &Loader{
		dataset:     dataset,
		mappings:    dataset.ColumnMapping,
		transformer: transformer,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}

	if dataset.MappingTemplate != "" {
		mappings, err := xlsxparser.ParseMappingTemplate(dataset.MappingTemplate)
		if err != nil {
			return nil, eris.Wrapf(err, "dataset %s: mapping template", dataset.Code)
		}
		l.mappings = mappings
		l.logger.Debug("loaded mapping template",
			zap.String("dataset", dataset.Code),
			zap.String("template", dataset.MappingTemplate),
			zap.Int("mappings", len(mappings)))
	}

	return l, nil
}

// Dataset returns the dataset configuration the loader was built with.
func (l *Loader) Dataset() *config.DatasetConfig {
	return l.dataset
}

// LoadFile parses and loads a file, dispatching on its extension:
// .csv/.txt, .xlsx/.xlsm and .yaml/.yml.
func (l *Loader) LoadFile(ctx context.Context, filePath string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.logger.Info("loading file",
		zap.String("file", filePath),
		zap.String("dataset", l.dataset.Code))

	var (
		table *types.Table
		err   error
	)
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".csv", ".txt":
		table, err = csvparser.Parse(filePath, l.dataset.CSVSettings)
	case ".xlsx", ".xlsm":
		table, err = xlsxparser.Parse(filePath, l.dataset.XLSXSettings)
	case ".yaml", ".yml":
		return l.loadYAMLFile(filePath)
	default:
		return nil, eris.Errorf("unsupported file type: %s", filePath)
	}
	if err != nil {
		return nil, err
	}

	return l.LoadTable(table)
}

// LoadTable converts a parsed table into shipments.
//
// RETURNS:
//   - The result. Invalid rows are skipped and listed in Result.Errors.
//   - An error if a required mapped column is missing from the table.
func (l *Loader) LoadTable(table *types.Table) (*Result, error) {
	mappings := l.mappings
	if len(mappings) == 0 {
		mappings = inferMappings(table.Headers)
	}

	groupHeader := l.dataset.Grouping.GroupByHeader
	return l.load(table, mappings, func(_ types.Row, values map[string]string) string {
		if groupHeader == "" {
			return ""
		}
		return values[groupHeader]
	})
}

// load runs the row pipeline. shipmentOf names the shipment of a row; an
// empty name falls back to the default shipment.
func (l *Loader) load(table *types.Table, mappings []config.ColumnMapping, shipmentOf func(types.Row, map[string]string) string) (*Result, error) {
	for _, m := range mappings {
		if m.Required && !table.HasHeader(m.Header) {
			return nil, eris.Errorf("%s: required column %q not found", table.SourceFile, m.Header)
		}
	}

	result := l.newResult(table.SourceFile)
	result.Rows = len(table.Rows)

	g := newGrouper(l.defaultShipment(table.SourceFile))
	ids := newIDSet(l.idPrefix())

	rows := table.FilterRows(func(row types.Row) bool { return hasMappedValue(row, mappings) })
	if skipped := len(table.Rows) - len(rows); skipped > 0 {
		l.logger.Debug("skipping rows with no mapped values",
			zap.String("file", table.SourceFile),
			zap.Int("rows", skipped))
	}

	for _, row := range rows {
		values := make(map[string]string, len(row.Values))
		for k, v := range row.Values {
			values[k] = v
		}

		if err := l.transformer.TransformRow(values); err != nil {
			result.Errors = append(result.Errors, &RowError{
				File:    table.SourceFile,
				Row:     row.Number,
				Rule:    "transform",
				Message: err.Error(),
			})
			continue
		}

		item, errs := l.buildItem(table.SourceFile, row.Number, values, mappings)
		if len(errs) == 0 {
			if e := ids.assign(&item); e != "" {
				errs = append(errs, &RowError{
					File:    table.SourceFile,
					Row:     row.Number,
					Field:   shipment.FieldID,
					Value:   item.ID,
					Rule:    "duplicate_id",
					Message: e,
				})
			}
		}
		if len(errs) > 0 {
			result.Errors = append(result.Errors, errs...)
			continue
		}

		g.add(shipmentOf(row, values), item)
	}

	result.Shipments = l.sortBatches(g.batches())

	l.logger.Info("file loaded",
		zap.String("file", table.SourceFile),
		zap.Int("rows", result.Rows),
		zap.Int("shipments", len(result.Shipments)),
		zap.Int("errors", len(result.Errors)))

	return result, nil
}

// hasMappedValue reports whether any mapped column of the row is non-blank.
// Rows that only carry unmapped cells, such as a trailing totals label, are
// not line items.
func hasMappedValue(row types.Row, mappings []config.ColumnMapping) bool {
	if len(mappings) == 0 {
		return true
	}
	for _, m := range mappings {
		if strings.TrimSpace(row.Values[m.Header]) != "" {
			return true
		}
	}
	return false
}

func (l *Loader) newResult(sourceFile string) *Result {
	return &Result{
		SourceFile: sourceFile,
		Dataset:    l.dataset.Code,
		Direction:  l.dataset.Direction,
	}
}

func (l *Loader) idPrefix() string {
	if l.dataset.IDPrefix != "" {
		return l.dataset.IDPrefix
	}
	if l.dataset.Code != "" {
		return l.dataset.Code
	}
	return defaultIDPrefix
}

func (l *Loader) defaultShipment(sourceFile string) string {
	if l.dataset.Grouping.DefaultShipment != "" {
		return l.dataset.Grouping.DefaultShipment
	}
	base := filepath.Base(sourceFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// =============================================================================
// COLUMN MAPPING
// =============================================================================

// inferMappings matches headers to fields by name or known alias.
// The first header claiming a field wins.
func inferMappings(headers []string) []config.ColumnMapping {
	var mappings []config.ColumnMapping
	claimed := make(map[shipment.Field]bool)

	for _, header := range headers {
		field, ok := FieldForHeader(header)
		if !ok || claimed[field] {
			continue
		}
		claimed[field] = true
		mappings = append(mappings, config.ColumnMapping{Header: header, Field: string(field)})
	}
	return mappings
}

// FieldForHeader resolves a source header to a line-item field by field
// name or portal alias, ignoring case and repeated spaces.
func FieldForHeader(header string) (shipment.Field, bool) {
	normalized := strings.ToLower(strings.Join(strings.Fields(header), " "))
	if normalized == "" {
		return "", false
	}
	if f, ok := headerAliases[normalized]; ok {
		return f, true
	}
	if f, err := shipment.ParseField(normalized); err == nil {
		return f, true
	}
	return "", false
}

// buildItem maps, validates and converts one transformed row.
func (l *Loader) buildItem(file string, rowNum int, values map[string]string, mappings []config.ColumnMapping) (shipment.LineItem, []*RowError) {
	var errs []*RowError
	fieldValues := make(map[shipment.Field]string, len(mappings))

	for _, m := range mappings {
		field, err := shipment.ParseField(m.Field)
		if err != nil {
			continue
		}
		value := strings.TrimSpace(values[m.Header])

		fail := func(rule, msg string) {
			errs = append(errs, &RowError{
				File:    file,
				Row:     rowNum,
				Header:  m.Header,
				Field:   field,
				Value:   value,
				Rule:    rule,
				Message: msg,
			})
		}

		if value == "" {
			if m.Required {
				fail("required", "Required field is empty")
			}
			continue
		}
		if msg := validateLength(value, m.MaxLength); msg != "" {
			fail("max_length", msg)
			continue
		}
		if msg := validateDataType(value, m.DataType); msg != "" {
			fail("data_type", msg)
			continue
		}
		fieldValues[field] = value
	}

	for _, sf := range l.dataset.StaticFields {
		field, err := shipment.ParseField(sf.Field)
		if err != nil {
			continue
		}
		if sf.Override || fieldValues[field] == "" {
			fieldValues[field] = sf.Value
		}
	}

	item, convErrs := convertItem(fieldValues)
	for _, e := range convErrs {
		e.File = file
		e.Row = rowNum
		e.Header = headerFor(mappings, e.Field)
	}
	errs = append(errs, convErrs...)

	return item, errs
}

func headerFor(mappings []config.ColumnMapping, field shipment.Field) string {
	for _, m := range mappings {
		if f, err := shipment.ParseField(m.Field); err == nil && f == field {
			return m.Header
		}
	}
	return ""
}

// Upper bounds for numeric cells. Quantities fit an int32; amounts stay
// well inside the range where float64 keeps cents.
var (
	maxQuantity = decimal.NewFromInt(math.MaxInt32)
	maxAmount   = decimal.NewFromFloat(shipment.MaxAmount)
)

// convertItem builds a line item from field values. Totals absent from the
// source are computed from quantity and unit price. The returned errors
// carry Field, Value, Rule and Message only.
func convertItem(fieldValues map[shipment.Field]string) (shipment.LineItem, []*RowError) {
	var (
		item shipment.LineItem
		errs []*RowError
	)

	fail := func(field shipment.Field, value, rule, msg string) {
		errs = append(errs, &RowError{Field: field, Value: value, Rule: rule, Message: msg})
	}

	// number parses a field's natural numeric type; ok is false when the
	// field is absent or invalid.
	number := func(field shipment.Field) (decimal.Decimal, bool) {
		raw, present := fieldValues[field]
		if !present || raw == "" {
			return decimal.Zero, false
		}
		if msg := validateDataType(raw, naturalType(field)); msg != "" {
			fail(field, raw, "data_type", msg)
			return decimal.Zero, false
		}
		d, _ := decimal.NewFromString(raw)
		if d.IsNegative() {
			fail(field, raw, "range", "Value must not be negative")
			return decimal.Zero, false
		}
		limit := maxAmount
		if field == shipment.FieldQuantity {
			limit = maxQuantity
		}
		if d.GreaterThan(limit) {
			fail(field, raw, "range", fmt.Sprintf("Value must not exceed %s", limit))
			return decimal.Zero, false
		}
		return d, true
	}

	item.ID = fieldValues[shipment.FieldID]
	item.DocumentNumber = fieldValues[shipment.FieldDocumentNumber]
	item.PartNumber = fieldValues[shipment.FieldPartNumber]
	item.ProductName = fieldValues[shipment.FieldProductName]
	item.CountryOfOrigin = fieldValues[shipment.FieldCountryOfOrigin]
	item.HarmonizedCode = fieldValues[shipment.FieldHarmonizedCode]
	item.DispatchCountry = fieldValues[shipment.FieldDispatchCountry]
	item.BookingReference = fieldValues[shipment.FieldBookingReference]

	if qty, ok := number(shipment.FieldQuantity); ok {
		item.Quantity = int(qty.IntPart())
	}
	if price, ok := number(shipment.FieldUnitPrice); ok {
		item.UnitPrice = price.InexactFloat64()
	}

	usd, sar := shipment.PriceTotals(item.Quantity, item.UnitPrice)
	if v, ok := number(shipment.FieldTotalPriceUSD); ok {
		usd = v.InexactFloat64()
		sar = shipment.ToSAR(usd)
	}
	if v, ok := number(shipment.FieldTotalPriceSAR); ok {
		sar = v.InexactFloat64()
	}
	item.TotalPriceUSD, item.TotalPriceSAR = usd, sar

	return item, errs
}

// =============================================================================
// IDS AND GROUPING
// =============================================================================

// idSet hands out "{prefix}-{n}" ids and rejects duplicates.
type idSet struct {
	prefix string
	next   int
	seen   map[string]bool
}

func newIDSet(prefix string) *idSet {
	return &idSet{prefix: prefix, seen: make(map[string]bool)}
}

// assign fills an empty id and records it. It returns a message when the
// id was already used in this file.
func (s *idSet) assign(item *shipment.LineItem) string {
	if item.ID == "" {
		for {
			candidate := fmt.Sprintf("%s-%d", s.prefix, s.next)
			s.next++
			if !s.seen[candidate] {
				item.ID = candidate
				break
			}
		}
	}
	if s.seen[item.ID] {
		return fmt.Sprintf("Duplicate item id '%s'", item.ID)
	}
	s.seen[item.ID] = true
	return ""
}

// grouper collects items per shipment in order of first appearance.
type grouper struct {
	fallback string
	order    []string
	items    map[string]shipment.Collection
}

func newGrouper(fallback string) *grouper {
	return &grouper{fallback: fallback, items: make(map[string]shipment.Collection)}
}

func (g *grouper) add(shipmentID string, item shipment.LineItem) {
	shipmentID = strings.TrimSpace(shipmentID)
	if shipmentID == "" {
		shipmentID = g.fallback
	}
	if _, ok := g.items[shipmentID]; !ok {
		g.order = append(g.order, shipmentID)
	}
	g.items[shipmentID] = append(g.items[shipmentID], item)
}

func (g *grouper) batches() []Batch {
	out := make([]Batch, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, Batch{ShipmentID: id, Items: g.items[id]})
	}
	return out
}

// sortBatches applies grouping.sort_by_field within each shipment.
// The sort is stable so equal keys keep source order.
func (l *Loader) sortBatches(batches []Batch) []Batch {
	if l.dataset.Grouping.SortByField == "" {
		return batches
	}
	field, err := shipment.ParseField(l.dataset.Grouping.SortByField)
	if err != nil {
		return batches
	}
	desc := l.dataset.Grouping.SortOrder == "desc"

	for _, b := range batches {
		items := b.Items
		sort.SliceStable(items, func(i, j int) bool {
			if desc {
				return lessValue(items[j].Value(field), items[i].Value(field))
			}
			return lessValue(items[i].Value(field), items[j].Value(field))
		})
	}
	return batches
}

func lessValue(a, b shipment.FieldValue) bool {
	if a.Kind == shipment.KindNumber && b.Kind == shipment.KindNumber {
		return a.Num < b.Num
	}
	return a.Str < b.Str
}
