package catalog

import (
	"context"
	"testing"

	"github.com/matst80/slask-storefront/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testProducts = []Product{
	{Id: 1, Name: "Ember Saga", Genre: "rpg", Platform: "pc", Publisher: "bandai-namco", Price: 39.99, Rating: 4.5, ReleaseYear: "2023", Popularity: 50},
	{Id: 2, Name: "Kart Rush", Genre: "racing", Platform: "switch", Publisher: "nintendo", Price: 9.99, Discount: 25, Rating: 3, ReleaseYear: "2020", Popularity: 600},
	{Id: 3, Name: "Mythic Forge", Genre: "rpg", Platform: "ps5", Publisher: "sony", Price: 69.99, Discount: 10, Rating: 5, ReleaseYear: "2024", Popularity: 300},
	{Id: 4, Name: "Saga of 100%", Genre: "strategy", Platform: "pc", Publisher: "ea", Price: 19.99, Rating: 2.5, ReleaseYear: "2023", Popularity: 10},
}

func openTestStore(t *testing.T) *SQLStore {
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Upsert(context.Background(), testProducts...))
	return s
}

func ids(r *Result) []int64 {
	ret := make([]int64, len(r.Items))
	for i, p := range r.Items {
		ret[i] = p.Id
	}
	return ret
}

func TestQueryFacets(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := types.DefaultFilterState()

	cases := []struct {
		name     string
		state    types.FilterState
		expected []int64
	}{
		{"default by popularity", base, []int64{2, 3, 1, 4}},
		{"genre", base.SetGenre("rpg", true), []int64{3, 1}},
		{"genre and platform", base.SetGenre("rpg", true).SetPlatform("pc", true), []int64{1}},
		{"publisher set", base.SetPublisher("ea", true).SetPublisher("nintendo", true), []int64{2, 4}},
		{"price", base.SetPriceRange(10, 40), []int64{1, 4}},
		{"rating", base.SetRating(4.5), []int64{3, 1}},
		{"year", base.SetReleaseYear("2023"), []int64{1, 4}},
		{"sale", base.SetOnSale(true), []int64{2, 3}},
		{"search ignores case and padding", base.SetSearch("  SAGA "), []int64{4, 1}},
		{"search escapes like", base.SetSearch("100%"), []int64{4}},
		{"price asc", base.SetSortBy("price-asc"), []int64{2, 4, 1, 3}},
		{"name desc", base.SetSortBy("name-desc"), []int64{4, 3, 2, 1}},
		{"release desc", base.SetSortBy("release-desc"), []int64{3, 1, 4, 2}},
		{"discount desc", base.SetSortBy("discount-desc"), []int64{2, 3, 1, 4}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, err := s.Query(ctx, c.state, Page{Size: 10})
			require.NoError(t, err)
			assert.Equal(t, c.expected, ids(r))
			assert.Equal(t, len(c.expected), r.TotalHits)
		})
	}
}

func TestSearchRelevancePrefersPrefix(t *testing.T) {
	s := openTestStore(t)
	r, err := s.Query(context.Background(), types.DefaultFilterState().SetSearch("saga"), Page{Size: 10})
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 1}, ids(r))

	r, err = s.Query(context.Background(), types.DefaultFilterState().SetSearch("ember"), Page{Size: 10})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(r))
}

func TestQueryPaging(t *testing.T) {
	s := openTestStore(t)
	r, err := s.Query(context.Background(), types.DefaultFilterState(), Page{Page: 1, Size: 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, ids(r))
	assert.Equal(t, 4, r.TotalHits)

	assert.Equal(t, Page{Page: 0, Size: 24}, Page{Page: -1}.Sanitize())
	assert.Equal(t, Page{Page: 100, Size: 200}, Page{Page: 500, Size: 5000}.Sanitize())
}

func TestSeedOnlyFillsEmptyStore(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	n, err := Seed(ctx, s, "")
	require.NoError(t, err)
	assert.Positive(t, n)
	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, count)

	n, err = Seed(ctx, s, "")
	require.NoError(t, err)
	assert.Zero(t, n)
}
