package messaging

type ChangeTopic string

const (
	// FilterSettled carries settled filter states for analytics.
	FilterSettled ChangeTopic = "filter_settled"
	// FacetsChanged carries a complete replacement facet catalog as json.
	FacetsChanged ChangeTopic = "facets_changed"
)

const GlobalPrefix = "global"
