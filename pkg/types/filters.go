package types

import (
	"math"
	"slices"
)

// FacetKind names one of the set valued facets.
type FacetKind string

const (
	Genre     FacetKind = "genre"
	Platform  FacetKind = "platform"
	Publisher FacetKind = "publisher"
)

var FacetKinds = []FacetKind{Genre, Platform, Publisher}

// OptionValidator reports whether an id is a known option for a facet.
// facet.Catalog implements it.
type OptionValidator interface {
	Has(kind FacetKind, id string) bool
}

// IdSet is a sorted list of unique ids. Values are never modified in place,
// every change returns a new set.
type IdSet []string

func NewIdSet(ids ...string) IdSet {
	if len(ids) == 0 {
		return nil
	}
	set := slices.Clone(ids)
	slices.Sort(set)
	set = slices.Compact(set)
	if len(set) == 1 && set[0] == "" {
		return nil
	}
	if set[0] == "" {
		set = set[1:]
	}
	return set
}

func (s IdSet) Contains(id string) bool {
	_, found := slices.BinarySearch(s, id)
	return found
}

func (s IdSet) With(id string) IdSet {
	if id == "" || s.Contains(id) {
		return s
	}
	ret := make(IdSet, 0, len(s)+1)
	ret = append(ret, s...)
	ret = append(ret, id)
	slices.Sort(ret)
	return ret
}

func (s IdSet) Without(id string) IdSet {
	idx, found := slices.BinarySearch(s, id)
	if !found {
		return s
	}
	if len(s) == 1 {
		return nil
	}
	ret := make(IdSet, 0, len(s)-1)
	ret = append(ret, s[:idx]...)
	return append(ret, s[idx+1:]...)
}

func (s IdSet) Toggle(id string, included bool) IdSet {
	if included {
		return s.With(id)
	}
	return s.Without(id)
}

// Filter keeps the ids accepted by keep.
func (s IdSet) Filter(keep func(string) bool) IdSet {
	var ret IdSet
	for _, id := range s {
		if keep(id) {
			ret = append(ret, id)
		}
	}
	if len(ret) == len(s) {
		return s
	}
	return ret
}

func (s IdSet) Equal(other IdSet) bool {
	return slices.Equal(s, other)
}

const (
	PriceDomainMin = 0.0
	PriceDomainMax = 100.0
)

// PriceRange is an inclusive bound within [PriceDomainMin, PriceDomainMax].
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func DefaultPriceRange() PriceRange {
	return PriceRange{Min: PriceDomainMin, Max: PriceDomainMax}
}

func clamp[T int | float64](value, min, max T) T {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// NewPriceRange clamps both bounds to the domain and swaps them if inverted.
// NaN is treated as the missing bound.
func NewPriceRange(low, high float64) PriceRange {
	if math.IsNaN(low) {
		low = PriceDomainMin
	}
	if math.IsNaN(high) {
		high = PriceDomainMax
	}
	low = clamp(low, PriceDomainMin, PriceDomainMax)
	high = clamp(high, PriceDomainMin, PriceDomainMax)
	if low > high {
		low, high = high, low
	}
	return PriceRange{Min: low, Max: high}
}

func (p PriceRange) IsDefault() bool {
	return p.Min == PriceDomainMin && p.Max == PriceDomainMax
}
