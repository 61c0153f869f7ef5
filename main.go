package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"strconv"
	"time"

	"github.com/matst80/slask-storefront/pkg/catalog"
	"github.com/matst80/slask-storefront/pkg/common"
	"github.com/matst80/slask-storefront/pkg/facet"
	"github.com/matst80/slask-storefront/pkg/messaging"
	"github.com/matst80/slask-storefront/pkg/reconcile"
	"github.com/matst80/slask-storefront/pkg/server"
	"github.com/matst80/slask-storefront/pkg/tracking"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var enableProfiling = flag.Bool("profiling", true, "enable profiling endpoints")
var listenAddress = envOr("LISTEN_ADDRESS", ":8080")
var debugAddress = envOr("DEBUG_ADDRESS", ":8081")
var redisUrl = os.Getenv("REDIS_URL")
var redisPassword = os.Getenv("REDIS_PASSWORD")
var rabbitUrl = os.Getenv("RABBIT_URL")
var catalogFile = os.Getenv("CATALOG_FILE")
var productsFile = os.Getenv("PRODUCTS_FILE")
var dbPath = envOr("DB_PATH", ":memory:")
var debounceMs = os.Getenv("DEBOUNCE_MS")
var country = envOr("COUNTRY", "se")

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func debounceWindow() time.Duration {
	ms, err := strconv.Atoi(debounceMs)
	if err != nil || ms <= 0 {
		return reconcile.DefaultDebounce
	}
	return time.Duration(ms) * time.Millisecond
}

func loadFacets() (*facet.Catalog, error) {
	if catalogFile == "" {
		return facet.Default(), nil
	}
	return facet.LoadYAML(catalogFile)
}

func listenForFacetUpdates(logger *zap.Logger, store *facet.Store) (*amqp.Connection, error) {
	conn, err := amqp.Dial(rabbitUrl)
	if err != nil {
		return nil, fmt.Errorf("connect amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	err = messaging.ListenToTopic(logger, ch, messaging.GlobalPrefix, messaging.FacetsChanged, func(d amqp.Delivery) error {
		if err := store.ReplaceFromJSON(d.Body); err != nil {
			return err
		}
		logger.Info("facet catalog replaced")
		return nil
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("listen for facet updates: %w", err)
	}
	return conn, nil
}

func startDebugServer(logger *zap.Logger) {
	debug := http.NewServeMux()
	debug.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	debug.Handle("/metrics", promhttp.Handler())
	if *enableProfiling {
		debug.HandleFunc("/debug/pprof/", pprof.Index)
		debug.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		debug.HandleFunc("/debug/pprof/profile", pprof.Profile)
		debug.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		debug.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	go func() {
		if err := http.ListenAndServe(debugAddress, debug); err != nil {
			logger.Error("debug server stopped", zap.Error(err))
		}
	}()
}

func main() {
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("could not create logger: %v", err)
	}
	defer logger.Sync()

	products, err := catalog.Open(dbPath)
	if err != nil {
		logger.Fatal("could not open product catalog", zap.String("path", dbPath), zap.Error(err))
	}
	seeded, err := catalog.Seed(context.Background(), products, productsFile)
	if err != nil {
		logger.Fatal("could not seed product catalog", zap.Error(err))
	}
	defer products.Close()
	logger.Info("product catalog ready", zap.String("path", dbPath), zap.Int("seeded", seeded))

	facets, err := loadFacets()
	if err != nil {
		logger.Fatal("could not load facet catalog", zap.String("file", catalogFile), zap.Error(err))
	}
	facetStore := facet.NewStore(facets)

	cache := server.NewCache(redisUrl, redisPassword, 0)
	defer cache.Close()
	if redisUrl != "" {
		logger.Info("result cache backed by redis", zap.String("addr", redisUrl))
	}

	srv := &server.WebServer{
		Path:     "/games",
		Catalog:  facetStore,
		Results:  server.NewResultService(products, cache, 5*time.Minute),
		Sessions: server.NewSessionStore(),
		Debounce: debounceWindow(),
		Logger:   logger,
	}

	hooks := []common.ShutdownHook{srv.Sessions.CloseAll}

	if rabbitUrl != "" {
		t, err := tracking.NewRabbitTracking(rabbitUrl, country, logger)
		if err != nil {
			logger.Error("tracking disabled", zap.Error(err))
		} else {
			srv.Tracking = t
			hooks = append(hooks, func(ctx context.Context) error {
				return t.Close()
			})
		}
		conn, err := listenForFacetUpdates(logger, facetStore)
		if err != nil {
			logger.Error("facet updates disabled", zap.Error(err))
		} else {
			hooks = append(hooks, func(ctx context.Context) error {
				return conn.Close()
			})
		}
	}

	startDebugServer(logger)

	timeouts := common.LoadTimeoutConfig(common.TimeoutConfig{
		ReadHeader: 5 * time.Second,
		Read:       15 * time.Second,
		Write:      30 * time.Second,
		Idle:       60 * time.Second,
		Shutdown:   20 * time.Second,
		Hook:       5 * time.Second,
	})
	httpServer := common.NewServerWithTimeouts(&http.Server{
		Addr:    listenAddress,
		Handler: srv.Handler(),
	}, timeouts)

	common.RunServerWithShutdown(logger, httpServer, "storefront", timeouts, hooks...)
}
