package apiclient

import (
	"context"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"shop-admin/internal/session"
)

// DefaultCacheTTL is how long a GET response stays fresh.
const DefaultCacheTTL = 5 * time.Minute

// DefaultCacheSize is the number of GET responses kept.
const DefaultCacheSize = 256

// Cache is a read-through cache of GET responses. Identical in-flight GETs
// share one upstream call. A successful non-GET purges every entry, and a
// GET issued after the purge never joins a call started before it.
type Cache struct {
	lru   *expirable.LRU[string, *Response]
	group singleflight.Group
	gen   atomic.Uint64
	scope session.Source
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// ScopedTo partitions cached responses by the token of src, so a response
// fetched under one session is never served to another.
func ScopedTo(src session.Source) CacheOption {
	return func(c *Cache) {
		c.scope = src
	}
}

// NewCache creates a cache; non-positive arguments select the defaults.
func NewCache(ttl time.Duration, size int, opts ...CacheOption) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if size <= 0 {
		size = DefaultCacheSize
	}
	c := &Cache{lru: expirable.NewLRU[string, *Response](size, nil, ttl)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Len returns the number of cached responses.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Purge drops every cached response.
func (c *Cache) Purge() {
	c.gen.Add(1)
	c.lru.Purge()
}

// Middleware returns the decorator backed by c.
func (c *Cache) Middleware() Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(ctx context.Context, req Request) (*Response, error) {
			if req.method() != http.MethodGet {
				resp, err := next.Do(ctx, req)
				if err == nil {
					c.Purge()
				}
				return resp, err
			}
			return c.get(ctx, next, req)
		})
	}
}

func (c *Cache) key(req Request) string {
	if c.scope == nil {
		return req.Key()
	}
	return c.scope.Current().Token + "|" + req.Key()
}

func (c *Cache) get(ctx context.Context, next Doer, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrCanceled
	}
	key := c.key(req)
	if resp, ok := c.lru.Get(key); ok {
		return resp, nil
	}

	gen := c.gen.Load()
	flight := key + "#" + strconv.FormatUint(gen, 10)
	// Shared calls must outlive any single waiter.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flight, func() (any, error) {
		resp, err := next.Do(shared, req)
		if err != nil {
			return nil, err
		}
		if c.gen.Load() == gen {
			c.lru.Add(key, resp)
		}
		return resp, nil
	})

	select {
	case <-ctx.Done():
		return nil, ErrCanceled
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Response), nil
	}
}
