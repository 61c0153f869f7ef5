package types

type SortOrder string

const (
	SortRelevance   SortOrder = "relevance"
	SortPriceAsc    SortOrder = "price-asc"
	SortPriceDesc   SortOrder = "price-desc"
	SortNameAsc     SortOrder = "name-asc"
	SortNameDesc    SortOrder = "name-desc"
	SortRatingDesc  SortOrder = "rating-desc"
	SortReleaseDesc SortOrder = "release-desc"
	SortDiscount    SortOrder = "discount-desc"
)

// SortOrders lists every accepted order in display order.
var SortOrders = []SortOrder{
	SortRelevance,
	SortPriceAsc,
	SortPriceDesc,
	SortNameAsc,
	SortNameDesc,
	SortRatingDesc,
	SortReleaseDesc,
	SortDiscount,
}

var sortLabels = map[SortOrder]string{
	SortRelevance:   "Relevance",
	SortPriceAsc:    "Price: low to high",
	SortPriceDesc:   "Price: high to low",
	SortNameAsc:     "Name: A-Z",
	SortNameDesc:    "Name: Z-A",
	SortRatingDesc:  "Highest rated",
	SortReleaseDesc: "Newest",
	SortDiscount:    "Biggest discount",
}

func ParseSortOrder(value string) (SortOrder, bool) {
	s := SortOrder(value)
	_, ok := sortLabels[s]
	return s, ok
}

func (s SortOrder) Label() string {
	return sortLabels[s]
}
