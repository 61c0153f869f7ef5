package view

import (
	"strconv"
	"time"

	"github.com/matst80/slask-storefront/pkg/facet"
	"github.com/matst80/slask-storefront/pkg/types"
)

type OptionView struct {
	Id      string
	Name    string
	Checked bool
}

type FacetGroup struct {
	Kind     types.FacetKind
	Title    string
	Options  []OptionView
	Selected int
}

type Choice struct {
	Value    string
	Label    string
	Selected bool
}

// Chip is one active filter with a link that removes just that filter.
type Chip struct {
	Label     string
	RemoveURL string
}

// Model is everything both filter surfaces render. Sidebar and Sheet take
// the same Model, never a copy of the state of their own.
type Model struct {
	Path        string
	State       types.FilterState
	QueryString string
	Groups      []FacetGroup
	PriceMin    float64
	PriceMax    float64
	DomainMin   float64
	DomainMax   float64
	Ratings     []Choice
	Years       []Choice
	Sorts       []Choice
	Chips       []Chip
	ActiveCount int
	HasActive   bool
	ClearURL    string
}

var groupTitles = map[types.FacetKind]string{
	types.Genre:     "Genre",
	types.Platform:  "Platform",
	types.Publisher: "Publisher",
}

const yearsShown = 12

func Build(path string, state types.FilterState, catalog *facet.Catalog) Model {
	m := Model{
		Path:        path,
		State:       state,
		QueryString: types.QueryString(state),
		PriceMin:    state.PriceRange.Min,
		PriceMax:    state.PriceRange.Max,
		DomainMin:   types.PriceDomainMin,
		DomainMax:   types.PriceDomainMax,
		ActiveCount: state.ActiveFilterCount(),
		HasActive:   state.HasActiveFilters(),
		ClearURL:    types.CanonicalURL(path, state.Reset()),
	}
	for _, kind := range types.FacetKinds {
		selected := state.Facet(kind)
		group := FacetGroup{Kind: kind, Title: groupTitles[kind], Selected: len(selected)}
		for _, o := range catalog.Options(kind) {
			group.Options = append(group.Options, OptionView{
				Id:      o.Id,
				Name:    o.Name,
				Checked: selected.Contains(o.Id),
			})
		}
		m.Groups = append(m.Groups, group)
		for _, id := range selected {
			m.Chips = append(m.Chips, Chip{
				Label:     catalog.Name(kind, id),
				RemoveURL: types.CanonicalURL(path, state.SetFacet(kind, id, false)),
			})
		}
	}
	m.Ratings = ratingChoices(state)
	m.Years = yearChoices(state, time.Now().Year())
	for _, s := range types.SortOrders {
		m.Sorts = append(m.Sorts, Choice{Value: string(s), Label: s.Label(), Selected: s == state.SortBy})
	}
	m.Chips = append(m.Chips, scalarChips(path, state)...)
	return m
}

func ratingChoices(state types.FilterState) []Choice {
	ret := []Choice{{Value: types.AnyValue, Label: "Any rating", Selected: state.Rating == nil}}
	for _, r := range []int{4, 3, 2, 1} {
		ret = append(ret, Choice{
			Value:    strconv.Itoa(r),
			Label:    strconv.Itoa(r) + "+ stars",
			Selected: state.Rating != nil && *state.Rating == float64(r),
		})
	}
	return ret
}

func yearChoices(state types.FilterState, current int) []Choice {
	ret := []Choice{{Value: types.AnyValue, Label: "Any year", Selected: state.ReleaseYear == ""}}
	found := state.ReleaseYear == ""
	for y := current; y > current-yearsShown; y-- {
		v := strconv.Itoa(y)
		ret = append(ret, Choice{Value: v, Label: v, Selected: v == state.ReleaseYear})
		found = found || v == state.ReleaseYear
	}
	if !found {
		ret = append(ret, Choice{Value: state.ReleaseYear, Label: state.ReleaseYear, Selected: true})
	}
	return ret
}

func formatPrice(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', -1, 64)
}

func scalarChips(path string, state types.FilterState) []Chip {
	var chips []Chip
	if state.Search != "" {
		chips = append(chips, Chip{Label: "“" + state.Search + "”", RemoveURL: types.CanonicalURL(path, state.SetSearch(""))})
	}
	if !state.PriceRange.IsDefault() {
		chips = append(chips, Chip{
			Label:     formatPrice(state.PriceRange.Min) + " - " + formatPrice(state.PriceRange.Max),
			RemoveURL: types.CanonicalURL(path, state.SetPriceRange(types.PriceDomainMin, types.PriceDomainMax)),
		})
	}
	if state.Rating != nil {
		chips = append(chips, Chip{
			Label:     strconv.FormatFloat(*state.Rating, 'f', -1, 64) + "+ stars",
			RemoveURL: types.CanonicalURL(path, state.ClearRating()),
		})
	}
	if state.ReleaseYear != "" {
		chips = append(chips, Chip{Label: state.ReleaseYear, RemoveURL: types.CanonicalURL(path, state.SetReleaseYear(types.AnyValue))})
	}
	if state.OnSale {
		chips = append(chips, Chip{Label: "On sale", RemoveURL: types.CanonicalURL(path, state.SetOnSale(false))})
	}
	return chips
}
