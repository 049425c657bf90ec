package board

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/ginjaninja78/prealert-engine/internal/filter"
	"github.com/ginjaninja78/prealert-engine/internal/shipment"
	"github.com/ginjaninja78/prealert-engine/internal/summary"
)

// PageSizes are the page sizes offered by the grid selector.
var PageSizes = []int{15, 25, 50}

// DefaultPageSize is the first entry of PageSizes.
const DefaultPageSize = 15

// Page is one page of a filtered grid. Number is 1-based.
type Page struct {
	Number int                 `yaml:"number" json:"number"`
	Size   int                 `yaml:"size" json:"size"`
	Count  int                 `yaml:"count" json:"count"`
	Items  shipment.Collection `yaml:"items" json:"items"`
}

// Table is one shipment grid as rendered: the filtered rows, their totals
// and the requested page.
type Table struct {
	Shipment Shipment            `yaml:"shipment" json:"shipment"`
	Items    shipment.Collection `yaml:"items" json:"items"`
	Summary  summary.Summary     `yaml:"summary" json:"summary"`
	Page     Page                `yaml:"page" json:"page"`
}

// View is the rendered board.
type View struct {
	Tables  []Table   `yaml:"tables" json:"tables"`
	Deleted []Deleted `yaml:"deleted" json:"deleted"`
}

// View applies the direction, date and search filters and paginates every
// visible shipment. Summaries cover all filtered rows, not just the page.
// A page past the end is clamped to the last page.
func (s Snapshot) View(pageSize, page int) (View, error) {
	if pageSize <= 0 {
		return View{}, eris.Wrapf(shipment.ErrInvalidArgument, "page size must be positive, got %d", pageSize)
	}
	if page < 1 {
		return View{}, eris.Wrapf(shipment.ErrInvalidArgument, "page must be >= 1, got %d", page)
	}

	v := View{Tables: make([]Table, 0, len(s.shipments)), Deleted: s.Deleted()}
	for _, sh := range s.shipments {
		if !s.visible(sh) {
			continue
		}
		items := filter.ByTerm(sh.Items, s.term)
		header := sh.clone()
		header.Items = nil
		v.Tables = append(v.Tables, Table{
			Shipment: header,
			Items:    items,
			Summary:  summary.Summarize(items),
			Page:     paginate(items, pageSize, page),
		})
	}
	return v, nil
}

func (s Snapshot) visible(sh Shipment) bool {
	if s.direction != "" && sh.Direction != s.direction {
		return false
	}
	return inRange(sh.Date, s.from, s.to)
}

func inRange(t, from, to time.Time) bool {
	d := day(t)
	if !from.IsZero() && d.Before(day(from)) {
		return false
	}
	if !to.IsZero() && d.After(day(to)) {
		return false
	}
	return true
}

func paginate(items shipment.Collection, size, number int) Page {
	count := (len(items) + size - 1) / size
	if count == 0 {
		count = 1
	}
	number = min(number, count)

	start := min((number-1)*size, len(items))
	end := min(start+size, len(items))
	return Page{
		Number: number,
		Size:   size,
		Count:  count,
		Items:  items[start:end].Clone(),
	}
}
