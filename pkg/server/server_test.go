package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matst80/slask-storefront/pkg/catalog"
	"github.com/matst80/slask-storefront/pkg/facet"
	"github.com/matst80/slask-storefront/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testProducts = []catalog.Product{
	{Id: 1, Name: "Ember Saga", Genre: "rpg", Platform: "pc", Publisher: "bandai-namco", Price: 39.99, Rating: 4.5, ReleaseYear: "2023", Popularity: 50},
	{Id: 2, Name: "Kart Rush", Genre: "racing", Platform: "switch", Publisher: "nintendo", Price: 9.99, Discount: 25, Rating: 3, ReleaseYear: "2020", Popularity: 600},
	{Id: 3, Name: "Mythic Forge", Genre: "rpg", Platform: "ps5", Publisher: "sony", Price: 69.99, Discount: 10, Rating: 5, ReleaseYear: "2024", Popularity: 300},
	{Id: 4, Name: "Tower Tactics", Genre: "strategy", Platform: "pc", Publisher: "ea", Price: 19.99, Rating: 2.5, ReleaseYear: "2023", Popularity: 10},
}

type filterCall struct {
	sessionId string
	query     string
	hits      int
}

type testTracking struct {
	mu       sync.Mutex
	sessions []string
	filters  []filterCall
}

func (t *testTracking) TrackSession(sessionId string, r *http.Request) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions = append(t.sessions, sessionId)
}

func (t *testTracking) TrackFilter(sessionId string, state types.FilterState, hits int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.filters = append(t.filters, filterCall{sessionId: sessionId, query: types.QueryString(state), hits: hits})
}

func (t *testTracking) Close() error { return nil }

func (t *testTracking) filterCalls() []filterCall {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]filterCall(nil), t.filters...)
}

func newTestServer(t *testing.T) (*WebServer, *testTracking) {
	store, err := catalog.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Upsert(context.Background(), testProducts...))

	tracking := &testTracking{}
	return &WebServer{
		Path:     "/games",
		Catalog:  facet.NewStore(facet.Default()),
		Results:  NewResultService(store, NewLocalCache(), time.Minute),
		Tracking: tracking,
		Sessions: NewSessionStore(),
		Debounce: 20 * time.Millisecond,
		Logger:   zaptest.NewLogger(t),
	}, tracking
}

func TestListingPageRendersWithoutRedirect(t *testing.T) {
	ws, tracking := newTestServer(t)
	h := ws.Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/games?sale=1&genre=bogus&genre=rpg", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Location"))
	body := w.Body.String()
	assert.Contains(t, body, "Mythic Forge")
	assert.NotContains(t, body, "Ember Saga")
	assert.Contains(t, body, `data-query="genre=rpg&amp;sale=true"`)

	require.Len(t, tracking.sessions, 1)
	calls := tracking.filterCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, filterCall{sessionId: tracking.sessions[0], query: "genre=rpg&sale=true", hits: 1}, calls[0])
}

func TestPostFiltersRedirectsToCanonicalUrl(t *testing.T) {
	ws, _ := newTestServer(t)
	h := ws.Handler()

	cases := []struct {
		form     url.Values
		expected string
	}{
		{url.Values{"sale": {"true"}, "genre": {"rpg"}, "min": {"0"}, "max": {"100"}, "rating": {"any"}, "sort": {"relevance"}}, "/games?genre=rpg&sale=true"},
		{url.Values{"genre": {"strategy", "rpg", "unknown"}, "max": {"500"}}, "/games?genre=rpg&genre=strategy"},
		{url.Values{}, "/games"},
	}
	for _, c := range cases {
		r := httptest.NewRequest(http.MethodPost, "/games", strings.NewReader(c.form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, c.expected, w.Header().Get("Location"), c.form.Encode())
	}
}

func TestFilterStateApi(t *testing.T) {
	ws, _ := newTestServer(t)
	w := httptest.NewRecorder()
	ws.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/filter?max=150&min=80&sort=bogus&year=20x4", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var res filterStateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, types.PriceRange{Min: 80, Max: 100}, res.State.PriceRange)
	assert.Equal(t, types.SortRelevance, res.State.SortBy)
	assert.Empty(t, res.State.ReleaseYear)
	assert.Equal(t, "min=80", res.Query)
	assert.Equal(t, "/games?min=80", res.Url)
	assert.Equal(t, 1, res.Active)
	assert.True(t, res.HasActive)
}

func TestProductsApiPages(t *testing.T) {
	ws, tracking := newTestServer(t)
	w := httptest.NewRecorder()
	ws.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products?genre=rpg&size=1&sort=price-asc", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var res catalog.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 2, res.TotalHits)
	require.Len(t, res.Items, 1)
	assert.Equal(t, int64(1), res.Items[0].Id)
	assert.Equal(t, 1, res.PageSize)
	assert.Len(t, tracking.filterCalls(), 1)
}

func TestFacetsApi(t *testing.T) {
	ws, _ := newTestServer(t)
	w := httptest.NewRecorder()
	ws.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/facets", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=300", w.Header().Get("Cache-Control"))
	var res facet.Catalog
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Len(t, res.Genres, len(facet.Default().Genres))
}

func TestOptionsRequest(t *testing.T) {
	ws, _ := newTestServer(t)
	r := httptest.NewRequest(http.MethodOptions, "/api/filter", nil)
	r.Header.Set("Origin", "https://shop.example")
	w := httptest.NewRecorder()
	ws.Handler().ServeHTTP(w, r)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "https://shop.example", w.Header().Get("Access-Control-Allow-Origin"))
}
