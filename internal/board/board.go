// =============================================================================
// Pre-Alert Engine - Board State
// =============================================================================
//
// A Snapshot is one immutable state of the pre-alert board: the shipments
// on screen, the search term, the direction and date filters, and the items
// the user removed. Every transition returns a new Snapshot and leaves the
// receiver untouched, so snapshots can be shared between goroutines.
//
// TRANSITIONS:
//   WithSearch     -> free-text term applied to every shipment grid
//   WithDirection  -> Inbound / Outbound / "" (all)
//   WithDateRange  -> inclusive day range on the shipment date
//   Delete         -> moves an item to the deleted list
//   Restore        -> puts a deleted item back where it was
//   Move           -> reorders an item within its shipment
//
// =============================================================================

package board

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/ginjaninja78/prealert-engine/internal/shipment"
)

// ErrNotFound is returned when a shipment or item id does not exist.
var ErrNotFound = eris.New("not found")

// DateLayout is the day format used on the board (DD/MM/YYYY).
const DateLayout = "02/01/2006"

// Direction is the movement of a shipment.
type Direction string

const (
	Inbound  Direction = "Inbound"
	Outbound Direction = "Outbound"
)

// ParseDirection accepts "inbound", "Outbound", "" (all) and so on.
func ParseDirection(s string) (Direction, error) {
	switch {
	case s == "":
		return "", nil
	case strings.EqualFold(s, string(Inbound)):
		return Inbound, nil
	case strings.EqualFold(s, string(Outbound)):
		return Outbound, nil
	}
	return "", eris.Wrapf(shipment.ErrInvalidArgument, "unknown direction %q", s)
}

// Header holds the air waybill details shown above a comparison.
type Header struct {
	GrossWeightKG   float64   `yaml:"grossWeightKg" json:"grossWeightKg"`
	Pallets         int       `yaml:"pallets" json:"pallets"`
	DispatchCountry string    `yaml:"dispatchCountry" json:"dispatchCountry"`
	ETD             time.Time `yaml:"etd" json:"etd"`
}

// Shipment is one grid on the board, keyed by its master air waybill number.
type Shipment struct {
	ID          string              `yaml:"id" json:"id"`
	Sequence    int                 `yaml:"sequence" json:"sequence"`
	Direction   Direction           `yaml:"direction" json:"direction"`
	Received    time.Time           `yaml:"received" json:"received"`
	Date        time.Time           `yaml:"date" json:"date"`
	Country     string              `yaml:"country" json:"country"`
	Status      string              `yaml:"status" json:"status"`
	ReferenceNo string              `yaml:"referenceNo" json:"referenceNo"`
	Header      Header              `yaml:"header" json:"header"`
	Items       shipment.Collection `yaml:"items" json:"items"`
}

func (s Shipment) clone() Shipment {
	s.Items = s.Items.Clone()
	return s
}

// Deleted is an item removed from a shipment, with enough context to put
// it back.
type Deleted struct {
	ShipmentID string            `yaml:"shipmentId" json:"shipmentId"`
	Index      int               `yaml:"index" json:"index"`
	Item       shipment.LineItem `yaml:"item" json:"item"`
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is an immutable board state. The zero value is an empty board.
type Snapshot struct {
	shipments []Shipment
	term      string
	direction Direction
	from, to  time.Time
	deleted   []Deleted
}

// New builds the initial board. Shipments are copied and the direction
// filter starts at Inbound.
func New(shipments ...Shipment) Snapshot {
	s := Snapshot{direction: Inbound}
	s.shipments = make([]Shipment, len(shipments))
	for i, sh := range shipments {
		s.shipments[i] = sh.clone()
	}
	return s
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.shipments = make([]Shipment, len(s.shipments))
	for i, sh := range s.shipments {
		out.shipments[i] = sh.clone()
	}
	out.deleted = make([]Deleted, len(s.deleted))
	for i, d := range s.deleted {
		d.Item = d.Item.Clone()
		out.deleted[i] = d
	}
	return out
}

// Shipments returns a copy of every shipment, unfiltered.
func (s Snapshot) Shipments() []Shipment { return s.clone().shipments }

// Deleted returns a copy of the deleted items, oldest first.
func (s Snapshot) Deleted() []Deleted { return s.clone().deleted }

// SearchTerm returns the current free-text term.
func (s Snapshot) SearchTerm() string { return s.term }

// Direction returns the direction filter; "" means all.
func (s Snapshot) Direction() Direction { return s.direction }

// DateRange returns the date filter. Zero times are open bounds.
func (s Snapshot) DateRange() (from, to time.Time) { return s.from, s.to }

// WithSearch sets the free-text term.
func (s Snapshot) WithSearch(term string) Snapshot {
	out := s.clone()
	out.term = term
	return out
}

// WithDirection sets the direction filter.
func (s Snapshot) WithDirection(d Direction) (Snapshot, error) {
	if d != "" && d != Inbound && d != Outbound {
		return s, eris.Wrapf(shipment.ErrInvalidArgument, "unknown direction %q", string(d))
	}
	out := s.clone()
	out.direction = d
	return out, nil
}

// WithDateRange keeps shipments dated within [from, to], compared by day.
// Either bound may be the zero time.
func (s Snapshot) WithDateRange(from, to time.Time) (Snapshot, error) {
	if !from.IsZero() && !to.IsZero() && day(from).After(day(to)) {
		return s, eris.Wrapf(shipment.ErrInvalidArgument,
			"from %s is after to %s", from.Format(DateLayout), to.Format(DateLayout))
	}
	out := s.clone()
	out.from, out.to = from, to
	return out, nil
}

// Delete moves an item out of a shipment and onto the deleted list.
func (s Snapshot) Delete(shipmentID, itemID string) (Snapshot, error) {
	si, ii, err := s.locate(shipmentID, itemID)
	if err != nil {
		return s, err
	}

	out := s.clone()
	sh := &out.shipments[si]
	item := sh.Items[ii]
	sh.Items = append(sh.Items[:ii:ii], sh.Items[ii+1:]...)
	out.deleted = append(out.deleted, Deleted{ShipmentID: shipmentID, Index: ii, Item: item})
	return out, nil
}

// Restore puts the most recently deleted item with itemID back into its
// shipment, at its old position when that still exists.
func (s Snapshot) Restore(itemID string) (Snapshot, error) {
	di := -1
	for i := len(s.deleted) - 1; i >= 0; i-- {
		if s.deleted[i].Item.ID == itemID {
			di = i
			break
		}
	}
	if di < 0 {
		return s, eris.Wrapf(ErrNotFound, "deleted item %q", itemID)
	}

	d := s.deleted[di]
	si := s.shipmentIndex(d.ShipmentID)
	if si < 0 {
		return s, eris.Wrapf(ErrNotFound, "shipment %q", d.ShipmentID)
	}

	out := s.clone()
	out.deleted = append(out.deleted[:di:di], out.deleted[di+1:]...)
	out.shipments[si].Items = insert(out.shipments[si].Items, d.Index, d.Item.Clone())
	return out, nil
}

// Move reorders an item within its shipment. toIndex is clamped to the
// shipment bounds.
func (s Snapshot) Move(shipmentID, itemID string, toIndex int) (Snapshot, error) {
	si, ii, err := s.locate(shipmentID, itemID)
	if err != nil {
		return s, err
	}

	out := s.clone()
	sh := &out.shipments[si]
	item := sh.Items[ii]
	rest := append(sh.Items[:ii:ii], sh.Items[ii+1:]...)
	sh.Items = insert(rest, toIndex, item)
	return out, nil
}

func (s Snapshot) shipmentIndex(id string) int {
	for i, sh := range s.shipments {
		if sh.ID == id {
			return i
		}
	}
	return -1
}

func (s Snapshot) locate(shipmentID, itemID string) (int, int, error) {
	si := s.shipmentIndex(shipmentID)
	if si < 0 {
		return 0, 0, eris.Wrapf(ErrNotFound, "shipment %q", shipmentID)
	}
	for ii, item := range s.shipments[si].Items {
		if item.ID == itemID {
			return si, ii, nil
		}
	}
	return 0, 0, eris.Wrapf(ErrNotFound, "item %q in shipment %q", itemID, shipmentID)
}

func insert(items shipment.Collection, at int, item shipment.LineItem) shipment.Collection {
	at = max(0, min(at, len(items)))
	out := make(shipment.Collection, 0, len(items)+1)
	out = append(out, items[:at]...)
	out = append(out, item)
	return append(out, items[at:]...)
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
