package view

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matst80/slask-storefront/pkg/catalog"
	"github.com/matst80/slask-storefront/pkg/facet"
	"github.com/matst80/slask-storefront/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildModel(t *testing.T) {
	state := types.DefaultFilterState().
		SetGenre("rpg", true).
		SetPlatform("switch", true).
		SetOnSale(true).
		SetRating(4).
		SetSortBy("price-asc")
	m := Build("/games", state, facet.Default())

	assert.Equal(t, 4, m.ActiveCount)
	assert.True(t, m.HasActive)
	assert.Equal(t, "/games", m.ClearURL)
	assert.Equal(t, types.QueryString(state), m.QueryString)

	require.Len(t, m.Groups, 3)
	assert.Equal(t, types.Genre, m.Groups[0].Kind)
	assert.Equal(t, 1, m.Groups[0].Selected)
	for _, o := range m.Groups[0].Options {
		assert.Equal(t, o.Id == "rpg", o.Checked, o.Id)
	}

	labels := []string{}
	for _, c := range m.Chips {
		labels = append(labels, c.Label)
	}
	assert.Equal(t, []string{"Role-playing", "Nintendo Switch", "4+ stars", "On sale"}, labels)
	assert.Equal(t, "/games?platform=switch&rating=4&sale=true&sort=price-asc", m.Chips[0].RemoveURL)

	for _, s := range m.Sorts {
		assert.Equal(t, s.Value == "price-asc", s.Selected)
	}
	assert.True(t, m.Ratings[1].Selected)
}

func TestYearOutsideListIsKept(t *testing.T) {
	m := Build("/games", types.DefaultFilterState().SetReleaseYear("1994"), facet.Default())
	last := m.Years[len(m.Years)-1]
	assert.Equal(t, Choice{Value: "1994", Label: "1994", Selected: true}, last)
	assert.False(t, m.Years[0].Selected)
}

func checkedValues(html string) []string {
	var ret []string
	for _, line := range strings.Split(html, "\n") {
		if strings.Contains(line, " checked") {
			ret = append(ret, strings.TrimSpace(line))
		}
	}
	return ret
}

func TestSidebarAndSheetRenderSameState(t *testing.T) {
	state := types.DefaultFilterState().SetGenre("strategy", true).SetPublisher("capcom", true).SetOnSale(true)
	m := Build("/games", state, facet.Default())

	var sidebar, sheet bytes.Buffer
	require.NoError(t, Sidebar(&sidebar, m))
	require.NoError(t, Sheet(&sheet, m))

	assert.Contains(t, sidebar.String(), `data-surface="sidebar"`)
	assert.Contains(t, sheet.String(), `data-surface="sheet"`)
	assert.Contains(t, sheet.String(), `<span class="badge">3</span>`)

	side := checkedValues(sidebar.String())
	assert.Len(t, side, 3)
	assert.Equal(t, side, checkedValues(sheet.String()))
}

func TestPageRendersResults(t *testing.T) {
	m := Build("/games", types.DefaultFilterState().SetSearch("saga"), facet.Default())
	var out bytes.Buffer
	require.NoError(t, Page(&out, m, &catalog.Result{
		Items:     []catalog.Product{{Id: 1, Name: "Ember Saga", Price: 39.99, Discount: 10}},
		TotalHits: 1,
	}))
	html := out.String()
	assert.Contains(t, html, "Ember Saga")
	assert.Contains(t, html, "1 games")
	assert.Contains(t, html, `data-query="q=saga"`)

	out.Reset()
	require.NoError(t, Page(&out, m, nil))
	assert.Contains(t, out.String(), "No games match these filters.")
}
