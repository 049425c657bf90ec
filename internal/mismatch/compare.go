// =============================================================================
// Pre-Alert Engine - Mismatch Comparator
// =============================================================================
//
// Compare reconciles two collections field by field: the 810 carrier
// manifest (left) and the pre-alert submission (right).
//
// PAIRING:
//   - Positional (default): item i on the left pairs with item i on the
//     right. The overlapping prefix is compared; the rest is Unmatched.
//   - Key (WithKeyPairing): items pair by a composite key. Duplicate keys
//     pair in order of occurrence.
//
// FIELD RULES:
//   | left   | right  | flagged when              |
//   |--------|--------|---------------------------|
//   | number | number | |left - right| > tolerance |
//   | string | string | not exactly equal         |
//   | other  | other  | always                    |
//
// =============================================================================

package mismatch

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/ginjaninja78/prealert-engine/internal/shipment"
)

// Side identifies which input an unmatched item came from.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Result is the outcome for one compared pair. Left and Right are copies of
// the inputs with Mismatch set; Fields lists the flagged fields in the order
// they were requested. An empty Fields means the pair agreed.
type Result struct {
	Index      int                `yaml:"index" json:"index"`
	RightIndex int                `yaml:"rightIndex" json:"rightIndex"`
	Left       *shipment.LineItem `yaml:"left" json:"left"`
	Right      *shipment.LineItem `yaml:"right" json:"right"`
	Fields     []shipment.Field   `yaml:"fields" json:"fields"`
}

// Flagged reports whether any field differed.
func (r Result) Flagged() bool { return len(r.Fields) > 0 }

// Has reports whether f was flagged on this pair.
func (r Result) Has(f shipment.Field) bool {
	for _, flagged := range r.Fields {
		if flagged == f {
			return true
		}
	}
	return false
}

// Unmatched is an item that had no counterpart on the other side.
type Unmatched struct {
	Index int               `yaml:"index" json:"index"`
	Side  Side              `yaml:"side" json:"side"`
	Item  shipment.LineItem `yaml:"item" json:"item"`
}

// Comparison is the full outcome of one Compare call.
type Comparison struct {
	Fields    []shipment.Field `yaml:"fields" json:"fields"`
	Tolerance float64          `yaml:"tolerance" json:"tolerance"`
	Pairing   Pairing          `yaml:"pairing" json:"pairing"`
	Results   []Result         `yaml:"results" json:"results"`
	Unmatched []Unmatched      `yaml:"unmatched" json:"unmatched"`
}

// Flagged returns only the results with at least one differing field.
func (c *Comparison) Flagged() []Result {
	out := make([]Result, 0)
	for _, r := range c.Results {
		if r.Flagged() {
			out = append(out, r)
		}
	}
	return out
}

// Clean reports whether every pair agreed and nothing was left unmatched.
func (c *Comparison) Clean() bool {
	return len(c.Flagged()) == 0 && len(c.Unmatched) == 0
}

// =============================================================================
// OPTIONS
// =============================================================================

// Pairing names how items are matched across the two inputs.
type Pairing string

const (
	PairByPosition Pairing = "position"
	PairByKey      Pairing = "key"
)

type options struct {
	pairing   Pairing
	keyFields []shipment.Field
}

// Option configures Compare.
type Option func(*options)

// WithKeyPairing pairs items whose values for keyFields are all equal,
// e.g. WithKeyPairing(shipment.FieldDocumentNumber, shipment.FieldPartNumber).
func WithKeyPairing(keyFields ...shipment.Field) Option {
	return func(o *options) {
		o.pairing = PairByKey
		o.keyFields = append([]shipment.Field(nil), keyFields...)
	}
}

// =============================================================================
// COMPARE
// =============================================================================

// Compare evaluates fields on every pair of items and returns one Result per
// pair, flagged or not. Neither input is modified.
//
// PARAMETERS:
//   - left, right: the collections to reconcile; either may be empty.
//   - fields: non-empty list of fields to evaluate.
//   - tolerance: absolute tolerance for numeric fields, >= 0.
//
// RETURNS:
//   - The comparison.
//   - ErrInvalidArgument for an empty or unknown field list, a negative
//     tolerance, or an invalid pairing key.
func Compare(left, right shipment.Collection, fields []shipment.Field, tolerance float64, opts ...Option) (*Comparison, error) {
	o := options{pairing: PairByPosition}
	for _, opt := range opts {
		opt(&o)
	}

	if err := validateFields(fields, "field"); err != nil {
		return nil, err
	}
	if math.IsNaN(tolerance) || tolerance < 0 {
		return nil, eris.Wrapf(shipment.ErrInvalidArgument, "tolerance must be non-negative, got %v", tolerance)
	}
	if o.pairing == PairByKey {
		if err := validateFields(o.keyFields, "key field"); err != nil {
			return nil, err
		}
	}

	c := &Comparison{
		Fields:    append([]shipment.Field(nil), fields...),
		Tolerance: tolerance,
		Pairing:   o.pairing,
		Results:   make([]Result, 0),
		Unmatched: make([]Unmatched, 0),
	}

	switch o.pairing {
	case PairByKey:
		pairByKey(c, left, right, o.keyFields)
	default:
		pairByPosition(c, left, right)
	}

	return c, nil
}

func validateFields(fields []shipment.Field, what string) error {
	if len(fields) == 0 {
		return eris.Wrapf(shipment.ErrInvalidArgument, "at least one %s is required", what)
	}
	for _, f := range fields {
		if !f.Valid() {
			return eris.Wrapf(shipment.ErrInvalidArgument, "unknown %s %q", what, string(f))
		}
	}
	return nil
}

func pairByPosition(c *Comparison, left, right shipment.Collection) {
	n := min(len(left), len(right))
	for i := 0; i < n; i++ {
		c.Results = append(c.Results, evaluate(i, i, left[i], right[i], c.Fields, c.Tolerance))
	}
	for i := n; i < len(left); i++ {
		c.Unmatched = append(c.Unmatched, Unmatched{Index: i, Side: SideLeft, Item: left[i].Clone()})
	}
	for i := n; i < len(right); i++ {
		c.Unmatched = append(c.Unmatched, Unmatched{Index: i, Side: SideRight, Item: right[i].Clone()})
	}
}

func pairByKey(c *Comparison, left, right shipment.Collection, keyFields []shipment.Field) {
	queues := make(map[string][]int, len(right))
	for j, item := range right {
		k := key(item, keyFields)
		queues[k] = append(queues[k], j)
	}

	used := make([]bool, len(right))
	for i, item := range left {
		k := key(item, keyFields)
		q := queues[k]
		if len(q) == 0 {
			c.Unmatched = append(c.Unmatched, Unmatched{Index: i, Side: SideLeft, Item: item.Clone()})
			continue
		}
		j := q[0]
		queues[k] = q[1:]
		used[j] = true
		c.Results = append(c.Results, evaluate(i, j, item, right[j], c.Fields, c.Tolerance))
	}

	for j, item := range right {
		if !used[j] {
			c.Unmatched = append(c.Unmatched, Unmatched{Index: j, Side: SideRight, Item: item.Clone()})
		}
	}
}

// key joins the string form of each key field with a unit separator.
func key(item shipment.LineItem, keyFields []shipment.Field) string {
	parts := make([]string, len(keyFields))
	for i, f := range keyFields {
		v := item.Value(f)
		switch v.Kind {
		case shipment.KindNumber:
			parts[i] = "n:" + strconv.FormatFloat(v.Num, 'f', -1, 64)
		case shipment.KindString:
			parts[i] = "s:" + v.Str
		}
	}
	return strings.Join(parts, "\x1f")
}

func evaluate(i, j int, l, r shipment.LineItem, fields []shipment.Field, tolerance float64) Result {
	flagged := Diff(l, r, fields, tolerance)

	lc, rc := l.Clone(), r.Clone()
	lflag, rflag := len(flagged) > 0, len(flagged) > 0
	lc.Mismatch, rc.Mismatch = &lflag, &rflag

	return Result{Index: i, RightIndex: j, Left: &lc, Right: &rc, Fields: flagged}
}

// Diff returns the fields on which l and r disagree, in the order given.
// Fields are assumed valid.
func Diff(l, r shipment.LineItem, fields []shipment.Field, tolerance float64) []shipment.Field {
	flagged := make([]shipment.Field, 0)
	for _, f := range fields {
		if differs(l.Value(f), r.Value(f), tolerance) {
			flagged = append(flagged, f)
		}
	}
	return flagged
}

func differs(a, b shipment.FieldValue, tolerance float64) bool {
	switch {
	case a.Kind == shipment.KindNumber && b.Kind == shipment.KindNumber:
		if math.IsNaN(a.Num) || math.IsNaN(b.Num) {
			return true
		}
		return math.Abs(a.Num-b.Num) > tolerance
	case a.Kind == shipment.KindString && b.Kind == shipment.KindString:
		return a.Str != b.Str
	default:
		return true
	}
}
