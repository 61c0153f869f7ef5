package server

import (
	"net/http"
	"time"

	"github.com/gorilla/schema"
	"github.com/matst80/slask-storefront/pkg/common"
	"github.com/matst80/slask-storefront/pkg/facet"
	"github.com/matst80/slask-storefront/pkg/reconcile"
	"github.com/matst80/slask-storefront/pkg/tracking"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	noFilterRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_filter_requests_total",
		Help: "Filter requests by route",
	}, []string{"route"})
)

var pageDecoder = schema.NewDecoder()

func init() {
	pageDecoder.IgnoreUnknownKeys(true)
}

type WebServer struct {
	Path     string
	Catalog  *facet.Store
	Results  *ResultService
	Tracking tracking.Tracking
	Sessions *SessionStore
	Debounce time.Duration
	Logger   *zap.Logger
}

func (ws *WebServer) tracker() common.SessionTracker {
	if ws.Tracking == nil {
		return nil
	}
	return ws.Tracking
}

func (ws *WebServer) path() string {
	if ws.Path == "" {
		return "/games"
	}
	return ws.Path
}

func (ws *WebServer) debounce() time.Duration {
	if ws.Debounce <= 0 {
		return reconcile.DefaultDebounce
	}
	return ws.Debounce
}

func (ws *WebServer) Handler() http.Handler {
	if ws.Logger == nil {
		ws.Logger = zap.NewNop()
	}
	if ws.Sessions == nil {
		ws.Sessions = NewSessionStore()
	}
	srv := http.NewServeMux()
	srv.HandleFunc("GET "+ws.path(), ws.ListingPage)
	srv.HandleFunc("POST "+ws.path(), ws.PostFilters)
	srv.HandleFunc("/api/filter", common.JsonHandler(ws.Logger, ws.tracker(), ws.FilterState))
	srv.HandleFunc("/api/products", common.JsonHandler(ws.Logger, ws.tracker(), ws.Products))
	srv.HandleFunc("/api/facets", common.JsonHandler(ws.Logger, ws.tracker(), ws.Facets))
	srv.HandleFunc("GET /ws/filter", ws.LiveFilter)
	return srv
}

func publicHeaders(w http.ResponseWriter, r *http.Request, cacheTime string) {
	w.Header().Set("Cache-Control", "public, max-age="+cacheTime)
	if origin := r.Header.Get("Origin"); origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
}
