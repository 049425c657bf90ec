// =============================================================================
// Pre-Alert Engine - Free-Text Filter
// =============================================================================
//
// ByTerm narrows a collection to the rows a search box would show. Matching
// is a case-insensitive substring test on the delivery note number and the
// product name only.
//
// =============================================================================

package filter

import (
	"strings"

	"github.com/ginjaninja78/prealert-engine/internal/shipment"
)

// ByTerm returns the items whose DocumentNumber or ProductName contains term,
// ignoring case. Order is preserved and the input is never modified.
//
// An empty term returns a copy of every item. A nil input yields nil.
func ByTerm(items shipment.Collection, term string) shipment.Collection {
	if term == "" {
		return items.Clone()
	}
	if items == nil {
		return nil
	}

	needle := strings.ToLower(term)
	out := make(shipment.Collection, 0, len(items))
	for _, item := range items {
		if Matches(item, needle) {
			out = append(out, item.Clone())
		}
	}
	return out
}

// Matches reports whether a single item matches an already lowercased term.
func Matches(item shipment.LineItem, lowerTerm string) bool {
	return strings.Contains(strings.ToLower(item.DocumentNumber), lowerTerm) ||
		strings.Contains(strings.ToLower(item.ProductName), lowerTerm)
}
