package types

import (
	"math"
	"strconv"
)

const (
	RatingMin = 0.0
	RatingMax = 5.0
	// AnyValue clears rating and release year.
	AnyValue = "any"
)

// FilterState is the current facet selection of a listing. It is treated as
// an immutable value: every setter returns a new state and never modifies
// the receiver, so two states can be compared to detect no-op updates.
type FilterState struct {
	Search      string     `json:"search"`
	Genres      IdSet      `json:"genres"`
	Platforms   IdSet      `json:"platforms"`
	Publishers  IdSet      `json:"publishers"`
	PriceRange  PriceRange `json:"priceRange"`
	Rating      *float64   `json:"rating,omitempty"`
	ReleaseYear string     `json:"releaseYear,omitempty"`
	OnSale      bool       `json:"onSale"`
	SortBy      SortOrder  `json:"sortBy"`
}

func DefaultFilterState() FilterState {
	return FilterState{
		PriceRange: DefaultPriceRange(),
		SortBy:     SortRelevance,
	}
}

func (f FilterState) Reset() FilterState {
	return DefaultFilterState()
}

func (f FilterState) SetSearch(text string) FilterState {
	f.Search = text
	return f
}

func (f FilterState) SetGenre(id string, included bool) FilterState {
	f.Genres = f.Genres.Toggle(id, included)
	return f
}

func (f FilterState) SetPlatform(id string, included bool) FilterState {
	f.Platforms = f.Platforms.Toggle(id, included)
	return f
}

func (f FilterState) SetPublisher(id string, included bool) FilterState {
	f.Publishers = f.Publishers.Toggle(id, included)
	return f
}

// SetFacet toggles an id in the set named by kind. Unknown kinds are ignored.
func (f FilterState) SetFacet(kind FacetKind, id string, included bool) FilterState {
	switch kind {
	case Genre:
		return f.SetGenre(id, included)
	case Platform:
		return f.SetPlatform(id, included)
	case Publisher:
		return f.SetPublisher(id, included)
	}
	return f
}

func (f FilterState) Facet(kind FacetKind) IdSet {
	switch kind {
	case Genre:
		return f.Genres
	case Platform:
		return f.Platforms
	case Publisher:
		return f.Publishers
	}
	return nil
}

func (f FilterState) SetPriceRange(low, high float64) FilterState {
	f.PriceRange = NewPriceRange(low, high)
	return f
}

// IsRating reports whether value is a usable minimum rating.
func IsRating(value float64) bool {
	return !math.IsNaN(value) && value > RatingMin && value <= RatingMax
}

// SetRating sets the minimum rating. Values at or below zero clear the
// floor; values above the scale, and NaN, keep the prior value.
func (f FilterState) SetRating(value float64) FilterState {
	if IsRating(value) {
		f.Rating = &value
		return f
	}
	if value <= RatingMin {
		f.Rating = nil
	}
	return f
}

func (f FilterState) ClearRating() FilterState {
	f.Rating = nil
	return f
}

// SetRatingString accepts "any" or a number; anything else keeps the prior value.
func (f FilterState) SetRatingString(value string) FilterState {
	if value == AnyValue || value == "" {
		return f.ClearRating()
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return f
	}
	return f.SetRating(v)
}

// SetReleaseYear accepts "any" or a four digit year; anything else keeps the prior value.
func (f FilterState) SetReleaseYear(value string) FilterState {
	if value == AnyValue || value == "" {
		f.ReleaseYear = ""
		return f
	}
	if !IsReleaseYear(value) {
		return f
	}
	f.ReleaseYear = value
	return f
}

func IsReleaseYear(value string) bool {
	if len(value) != 4 {
		return false
	}
	for _, c := range value {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (f FilterState) SetOnSale(onSale bool) FilterState {
	f.OnSale = onSale
	return f
}

// SetSortBy keeps the prior order when value is not a known sort order.
func (f FilterState) SetSortBy(value string) FilterState {
	if s, ok := ParseSortOrder(value); ok {
		f.SortBy = s
	}
	return f
}

// Validate drops set values that the option catalog does not know about.
func (f FilterState) Validate(options OptionValidator) FilterState {
	if options == nil {
		return f
	}
	f.Genres = f.Genres.Filter(func(id string) bool { return options.Has(Genre, id) })
	f.Platforms = f.Platforms.Filter(func(id string) bool { return options.Has(Platform, id) })
	f.Publishers = f.Publishers.Filter(func(id string) bool { return options.Has(Publisher, id) })
	return f
}

func ratingEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (f FilterState) Equal(other FilterState) bool {
	return f.Search == other.Search &&
		f.Genres.Equal(other.Genres) &&
		f.Platforms.Equal(other.Platforms) &&
		f.Publishers.Equal(other.Publishers) &&
		f.PriceRange == other.PriceRange &&
		ratingEqual(f.Rating, other.Rating) &&
		f.ReleaseYear == other.ReleaseYear &&
		f.OnSale == other.OnSale &&
		f.SortBy == other.SortBy
}

// HasActiveFilters is true when any field, sort order included, differs from the default.
func (f FilterState) HasActiveFilters() bool {
	return !f.Equal(DefaultFilterState())
}

// ActiveFilterCount counts the filter categories in use. Sort order is not a
// filter and multiple values in one facet count once.
func (f FilterState) ActiveFilterCount() int {
	count := 0
	for _, active := range []bool{
		f.Search != "",
		len(f.Genres) > 0,
		len(f.Platforms) > 0,
		len(f.Publishers) > 0,
		!f.PriceRange.IsDefault(),
		f.Rating != nil,
		f.ReleaseYear != "",
		f.OnSale,
	} {
		if active {
			count++
		}
	}
	return count
}
