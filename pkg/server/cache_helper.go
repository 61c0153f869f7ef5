package server

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "storefront_result_cache_total",
	Help: "Result cache lookups by outcome",
}, []string{"outcome"})

type CacheHelper[T any] struct {
	Cache ResultCache
}

func NewCacheHelper[T any](cache ResultCache) *CacheHelper[T] {
	return &CacheHelper[T]{Cache: cache}
}

// Handle fills out from the cache, or from fn on a miss. A failed write to
// the cache does not fail the lookup.
func (c *CacheHelper[T]) Handle(ctx context.Context, key string, out *T, fn func() (T, error), expiration time.Duration) error {
	if c.Cache != nil {
		if err := c.Cache.Get(ctx, key, out); err == nil {
			cacheLookups.WithLabelValues("hit").Inc()
			return nil
		}
	}
	cacheLookups.WithLabelValues("miss").Inc()
	v, err := fn()
	if err != nil {
		return err
	}
	*out = v
	if c.Cache != nil {
		if err := c.Cache.Set(ctx, key, v, expiration); err != nil {
			cacheLookups.WithLabelValues("write_error").Inc()
		}
	}
	return nil
}
