package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/matst80/slask-storefront/pkg/catalog"
	"github.com/matst80/slask-storefront/pkg/common"
	"github.com/matst80/slask-storefront/pkg/types"
	"github.com/matst80/slask-storefront/pkg/view"
	"go.uber.org/zap"
)

func decodePage(query url.Values) catalog.Page {
	page := catalog.Page{}
	_ = pageDecoder.Decode(&page, query)
	return page.Sanitize()
}

func (ws *WebServer) trackFilter(sessionId string, state types.FilterState, hits int) {
	if ws.Tracking != nil {
		ws.Tracking.TrackFilter(sessionId, state, hits)
	}
}

// ListingPage renders the listing for whatever query it is given. The url is
// never rewritten here, a non canonical query still renders its decoded state.
func (ws *WebServer) ListingPage(w http.ResponseWriter, r *http.Request) {
	noFilterRequests.WithLabelValues("page").Inc()
	sessionId := common.HandleSessionCookie(ws.tracker(), w, r)
	facets := ws.Catalog.Catalog()
	state := types.DecodeQuery(r.URL.Query(), facets)

	result, err := ws.Results.Query(r.Context(), state, decodePage(r.URL.Query()))
	if err != nil {
		ws.Logger.Error("listing query failed", zap.String("query", r.URL.RawQuery), zap.Error(err))
		http.Error(w, "could not load games", http.StatusInternalServerError)
		return
	}
	ws.trackFilter(sessionId, state, result.TotalHits)

	var buf bytes.Buffer
	if err = view.Page(&buf, view.Build(ws.path(), state, facets), result); err != nil {
		ws.Logger.Error("render listing failed", zap.Error(err))
		http.Error(w, "could not render games", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "private, no-cache")
	_, _ = buf.WriteTo(w)
}

// PostFilters is the no-script path: the filter form posts here and is sent
// on to the canonical url of the posted state.
func (ws *WebServer) PostFilters(w http.ResponseWriter, r *http.Request) {
	noFilterRequests.WithLabelValues("post").Inc()
	state := types.FilterStateFromRequest(r, ws.Catalog)
	http.Redirect(w, r, types.CanonicalURL(ws.path(), state), http.StatusSeeOther)
}

type filterStateResponse struct {
	State     types.FilterState `json:"state"`
	Query     string            `json:"query"`
	Url       string            `json:"url"`
	Active    int               `json:"active"`
	HasActive bool              `json:"hasActive"`
}

func newFilterStateResponse(path string, state types.FilterState) filterStateResponse {
	return filterStateResponse{
		State:     state,
		Query:     types.QueryString(state),
		Url:       types.CanonicalURL(path, state),
		Active:    state.ActiveFilterCount(),
		HasActive: state.HasActiveFilters(),
	}
}

func (ws *WebServer) FilterState(w http.ResponseWriter, r *http.Request, sessionId string, enc *json.Encoder) error {
	noFilterRequests.WithLabelValues("filter").Inc()
	state := types.FilterStateFromRequest(r, ws.Catalog)
	w.WriteHeader(http.StatusOK)
	return enc.Encode(newFilterStateResponse(ws.path(), state))
}

func (ws *WebServer) Products(w http.ResponseWriter, r *http.Request, sessionId string, enc *json.Encoder) error {
	noFilterRequests.WithLabelValues("products").Inc()
	state := types.DecodeQuery(r.URL.Query(), ws.Catalog)
	result, err := ws.Results.Query(r.Context(), state, decodePage(r.URL.Query()))
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return err
	}
	ws.trackFilter(sessionId, state, result.TotalHits)
	w.WriteHeader(http.StatusOK)
	return enc.Encode(result)
}

func (ws *WebServer) Facets(w http.ResponseWriter, r *http.Request, sessionId string, enc *json.Encoder) error {
	publicHeaders(w, r, "300")
	w.WriteHeader(http.StatusOK)
	return enc.Encode(ws.Catalog.Catalog())
}
