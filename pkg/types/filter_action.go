package types

import "strconv"

type FilterOp string

const (
	OpSearch    FilterOp = "search"
	OpGenre     FilterOp = "genre"
	OpPlatform  FilterOp = "platform"
	OpPublisher FilterOp = "publisher"
	OpPrice     FilterOp = "price"
	OpRating    FilterOp = "rating"
	OpYear      FilterOp = "year"
	OpSale      FilterOp = "sale"
	OpSort      FilterOp = "sort"
	OpReset     FilterOp = "reset"
)

// FilterAction is one user interaction with a facet control, as sent by the
// live filter session and produced from form posts.
type FilterAction struct {
	Op       FilterOp `json:"op"`
	Id       string   `json:"id,omitempty"`
	Included bool     `json:"included,omitempty"`
	Value    string   `json:"value,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
}

// Apply dispatches the action to the matching setter. Unknown ops and
// malformed values leave the state unchanged.
func (f FilterState) Apply(a FilterAction) FilterState {
	switch a.Op {
	case OpSearch:
		return f.SetSearch(a.Value)
	case OpGenre, OpPlatform, OpPublisher:
		return f.SetFacet(FacetKind(a.Op), a.Id, a.Included)
	case OpPrice:
		low, high := f.PriceRange.Min, f.PriceRange.Max
		if a.Min != nil {
			low = *a.Min
		}
		if a.Max != nil {
			high = *a.Max
		}
		return f.SetPriceRange(low, high)
	case OpRating:
		return f.SetRatingString(a.Value)
	case OpYear:
		return f.SetReleaseYear(a.Value)
	case OpSale:
		if a.Value != "" {
			on, err := strconv.ParseBool(a.Value)
			if err != nil {
				return f
			}
			return f.SetOnSale(on)
		}
		return f.SetOnSale(a.Included)
	case OpSort:
		return f.SetSortBy(a.Value)
	case OpReset:
		return f.Reset()
	}
	return f
}
