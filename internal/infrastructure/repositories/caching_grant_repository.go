package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/endemicgrants/grant-discovery/internal/core/domain/grant"
	"github.com/endemicgrants/grant-discovery/internal/core/ports"
)

// Utility helpers
func cacheSetSilently(c ports.Cache, ctx context.Context, key string, v any, ttl time.Duration) {
	if c == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.Set(ctx, key, b, ttl)
}

func cacheGet[T any](c ports.Cache, ctx context.Context, key string) (*T, bool) {
	if c == nil {
		return nil, false
	}
	b, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, false
	}
	return &v, true
}

// CachingGrantRepository decorates a GrantRepository with cache-aside over
// the shared byte-KV cache. Point reads (by ID, by URL) are cached; the
// count is cached and coalesced through singleflight; filtered lists always
// hit the database because the filter space is unbounded.
type CachingGrantRepository struct {
	inner ports.GrantRepository
	cache ports.Cache
	ttl   time.Duration
}

func NewCachingGrantRepository(inner ports.GrantRepository, cache ports.Cache, ttl time.Duration) ports.GrantRepository {
	return &CachingGrantRepository{inner: inner, cache: cache, ttl: ttl}
}

func (c *CachingGrantRepository) Create(ctx context.Context, g *grant.Grant) error {
	if err := c.inner.Create(ctx, g); err != nil {
		return err
	}
	cacheSetSilently(c.cache, ctx, "grant:id:"+g.ID.String(), g, c.ttl)
	cacheSetSilently(c.cache, ctx, "grant:url:"+g.URL, g, c.ttl)
	if c.cache != nil {
		_ = c.cache.Delete(ctx, "grants:count")
	}
	return nil
}

func (c *CachingGrantRepository) GetByID(ctx context.Context, id uuid.UUID) (*grant.Grant, error) {
	if v, ok := cacheGet[grant.Grant](c.cache, ctx, "grant:id:"+id.String()); ok {
		return v, nil
	}
	g, err := c.inner.GetByID(ctx, id)
	if err == nil && g != nil {
		cacheSetSilently(c.cache, ctx, "grant:id:"+g.ID.String(), g, c.ttl)
		cacheSetSilently(c.cache, ctx, "grant:url:"+g.URL, g, c.ttl)
	}
	return g, err
}

func (c *CachingGrantRepository) GetByURL(ctx context.Context, url string) (*grant.Grant, error) {
	if v, ok := cacheGet[grant.Grant](c.cache, ctx, "grant:url:"+url); ok {
		return v, nil
	}
	g, err := c.inner.GetByURL(ctx, url)
	if err == nil && g != nil {
		cacheSetSilently(c.cache, ctx, "grant:url:"+g.URL, g, c.ttl)
		cacheSetSilently(c.cache, ctx, "grant:id:"+g.ID.String(), g, c.ttl)
	}
	return g, err
}

func (c *CachingGrantRepository) List(ctx context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	return c.inner.List(ctx, filter)
}

func (c *CachingGrantRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status grant.Status) error {
	// Need the current record to drop its URL key
	current, _ := c.inner.GetByID(ctx, id)
	if err := c.inner.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	if c.cache != nil {
		_ = c.cache.Delete(ctx, "grant:id:"+id.String())
		if current != nil {
			_ = c.cache.Delete(ctx, "grant:url:"+current.URL)
		}
	}
	return nil
}

func (c *CachingGrantRepository) Count(ctx context.Context) (int, error) {
	if c.cache != nil {
		if v, ok := cacheGet[int](c.cache, ctx, "grants:count"); ok {
			return *v, nil
		}
	}
	res, err, _ := sf.Do("grants:count", func() (any, error) {
		if c.cache != nil {
			if v, ok := cacheGet[int](c.cache, ctx, "grants:count"); ok {
				return *v, nil
			}
		}
		cnt, err := c.inner.Count(ctx)
		if err != nil {
			return 0, err
		}
		cacheSetSilently(c.cache, ctx, "grants:count", cnt, c.ttl)
		return cnt, nil
	})
	if err != nil {
		return 0, err
	}
	return res.(int), nil
}

// Simple validation to ensure decorators implement interfaces at compile time
var _ ports.GrantRepository = (*CachingGrantRepository)(nil)

// singleflight group for coalescing cache-miss loads in-process
var sf singleflight.Group
