package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

// ResultCache is what the result service needs from a cache.
type ResultCache interface {
	Get(ctx context.Context, key string, out any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// DefaultLocalEntries bounds the in-process tier.
const DefaultLocalEntries = 1024

type localEntry struct {
	expires time.Time
	data    []byte
}

// Cache keeps a short lived in-process copy in front of redis. Without a
// redis address only the local tier is used.
type Cache struct {
	client     *redis.Client
	localTTL   time.Duration
	maxEntries int

	mu    sync.Mutex
	local map[string]localEntry
}

func NewCache(addr, password string, db int) *Cache {
	c := NewLocalCache()
	if addr != "" {
		c.client = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		})
	}
	return c
}

func NewLocalCache() *Cache {
	return &Cache{
		localTTL:   time.Minute,
		maxEntries: DefaultLocalEntries,
		local:      make(map[string]localEntry),
	}
}

func (c *Cache) getLocal(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, found := c.local[key]
	if !found {
		return nil, false
	}
	if time.Now().After(entry.expires) {
		delete(c.local, key)
		return nil, false
	}
	return entry.data, true
}

func (c *Cache) setLocal(key string, data []byte, expiration time.Duration) {
	ttl := c.localTTL
	if expiration > 0 && expiration < ttl {
		ttl = expiration
	}
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, found := c.local[key]; !found && len(c.local) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.local[key] = localEntry{expires: now.Add(ttl), data: data}
}

// evictLocked drops every expired entry, and the entry closest to expiry
// when that frees nothing.
func (c *Cache) evictLocked(now time.Time) {
	oldest := ""
	var oldestExpiry time.Time
	for key, entry := range c.local {
		if now.After(entry.expires) {
			delete(c.local, key)
			continue
		}
		if oldest == "" || entry.expires.Before(oldestExpiry) {
			oldest, oldestExpiry = key, entry.expires
		}
	}
	if len(c.local) >= c.maxEntries && oldest != "" {
		delete(c.local, oldest)
	}
}

func (c *Cache) Get(ctx context.Context, key string, out any) error {
	if data, ok := c.getLocal(key); ok {
		return json.Unmarshal(data, out)
	}
	if c.client == nil {
		return ErrCacheMiss
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	if err = json.Unmarshal(data, out); err != nil {
		return err
	}
	c.setLocal(key, data, c.localTTL)
	return nil
}

func (c *Cache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.setLocal(key, data, expiration)
	if c.client == nil {
		return nil
	}
	return c.client.Set(ctx, key, data, expiration).Err()
}

func (c *Cache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
