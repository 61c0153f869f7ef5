package server

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/matst80/slask-storefront/pkg/catalog"
	"github.com/matst80/slask-storefront/pkg/types"
	"golang.org/x/sync/singleflight"
)

type ProductQuerier interface {
	Query(ctx context.Context, f types.FilterState, page catalog.Page) (*catalog.Result, error)
}

// ResultService answers filter queries from the cache, collapsing identical
// concurrent queries into one store lookup.
type ResultService struct {
	store ProductQuerier
	cache *CacheHelper[catalog.Result]
	ttl   time.Duration
	group singleflight.Group
}

func NewResultService(store ProductQuerier, cache ResultCache, ttl time.Duration) *ResultService {
	return &ResultService{
		store: store,
		cache: NewCacheHelper[catalog.Result](cache),
		ttl:   ttl,
	}
}

// cacheKey relies on the canonical query: equal states encode identically.
func cacheKey(f types.FilterState, page catalog.Page) string {
	return "results:" + types.QueryString(f) + "|" + strconv.Itoa(page.Page) + "|" + strconv.Itoa(page.Size)
}

// Query returns the page of products matching f. The shared lookup runs
// detached from any single caller's context, so a caller that gives up
// only abandons its own wait and never fails the others joined on the key.
func (s *ResultService) Query(ctx context.Context, f types.FilterState, page catalog.Page) (*catalog.Result, error) {
	page = page.Sanitize()
	key := cacheKey(f, page)
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		var result catalog.Result
		err := s.cache.Handle(shared, key, &result, func() (catalog.Result, error) {
			res, err := s.store.Query(shared, f, page)
			if err != nil {
				return catalog.Result{}, err
			}
			return *res, nil
		}, s.ttl)
		return &result, err
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("query products: %w", ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return nil, fmt.Errorf("query products: %w", r.Err)
		}
		return r.Val.(*catalog.Result), nil
	}
}
