package types

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/schema"
)

// filterQuery is the wire shape of a FilterState. Parameter names are part of
// bookmarked and shared urls and must not change.
type filterQuery struct {
	Query     string   `schema:"q,omitempty"`
	Genre     []string `schema:"genre,omitempty"`
	Platform  []string `schema:"platform,omitempty"`
	Publisher []string `schema:"publisher,omitempty"`
	Min       string   `schema:"min,omitempty"`
	Max       string   `schema:"max,omitempty"`
	Rating    string   `schema:"rating,omitempty"`
	Year      string   `schema:"year,omitempty"`
	Sale      string   `schema:"sale,omitempty"`
	Sort      string   `schema:"sort,omitempty"`
}

var decoder = schema.NewDecoder()
var encoder = schema.NewEncoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseNumber(value string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return v
}

func toQuery(f FilterState) filterQuery {
	q := filterQuery{
		Query:     f.Search,
		Genre:     []string(f.Genres),
		Platform:  []string(f.Platforms),
		Publisher: []string(f.Publishers),
		Year:      f.ReleaseYear,
	}
	if f.PriceRange.Min != PriceDomainMin {
		q.Min = formatNumber(f.PriceRange.Min)
	}
	if f.PriceRange.Max != PriceDomainMax {
		q.Max = formatNumber(f.PriceRange.Max)
	}
	if f.Rating != nil {
		q.Rating = formatNumber(*f.Rating)
	}
	if f.OnSale {
		q.Sale = "true"
	}
	if f.SortBy != SortRelevance && f.SortBy != "" {
		q.Sort = string(f.SortBy)
	}
	return q
}

// EncodeQuery emits one parameter per non-default field. Multi valued facets
// use repeated keys.
func EncodeQuery(f FilterState) url.Values {
	values := url.Values{}
	if err := encoder.Encode(toQuery(f), values); err != nil {
		// only string fields, the encoder cannot fail on them
		return url.Values{}
	}
	return values
}

// QueryString is the canonical, key sorted form of EncodeQuery. The default
// state encodes to the empty string.
func QueryString(f FilterState) string {
	return EncodeQuery(f).Encode()
}

// CanonicalURL joins path and the canonical query string.
func CanonicalURL(path string, f FilterState) string {
	qs := QueryString(f)
	if qs == "" {
		return path
	}
	return path + "?" + qs
}

// DecodeQuery reads a FilterState from query values. It never fails: missing
// keys, unparsable numbers, unknown ids and unknown sort orders all fall back
// to the default for that field.
func DecodeQuery(query url.Values, options OptionValidator) FilterState {
	raw := filterQuery{}
	// a partially decoded struct is still usable
	_ = decoder.Decode(&raw, query)

	f := DefaultFilterState().
		SetSearch(raw.Query).
		SetPriceRange(parseNumber(raw.Min, PriceDomainMin), parseNumber(raw.Max, PriceDomainMax)).
		SetRatingString(strings.TrimSpace(raw.Rating)).
		SetReleaseYear(strings.TrimSpace(raw.Year)).
		SetSortBy(strings.TrimSpace(raw.Sort))
	f.Genres = NewIdSet(raw.Genre...)
	f.Platforms = NewIdSet(raw.Platform...)
	f.Publishers = NewIdSet(raw.Publisher...)
	if sale, err := strconv.ParseBool(strings.TrimSpace(raw.Sale)); err == nil {
		f.OnSale = sale
	}
	return f.Validate(options)
}

// Sanitize re-establishes every invariant on a state that did not come from
// the setters, for example one decoded from JSON.
func (f FilterState) Sanitize(options OptionValidator) FilterState {
	ret := DefaultFilterState().
		SetSearch(f.Search).
		SetPriceRange(f.PriceRange.Min, f.PriceRange.Max).
		SetReleaseYear(f.ReleaseYear).
		SetSortBy(string(f.SortBy)).
		SetOnSale(f.OnSale)
	if f.Rating != nil && IsRating(*f.Rating) {
		ret = ret.SetRating(*f.Rating)
	}
	ret.Genres = NewIdSet(f.Genres...)
	ret.Platforms = NewIdSet(f.Platforms...)
	ret.Publishers = NewIdSet(f.Publishers...)
	return ret.Validate(options)
}

// FilterStateFromRequest decodes the query string of a GET request, or the
// url encoded form of a POST.
func FilterStateFromRequest(r *http.Request, options OptionValidator) FilterState {
	if r.Method == http.MethodGet {
		return DecodeQuery(r.URL.Query(), options)
	}
	if err := r.ParseForm(); err != nil {
		return DecodeQuery(r.URL.Query(), options)
	}
	return DecodeQuery(r.Form, options)
}
