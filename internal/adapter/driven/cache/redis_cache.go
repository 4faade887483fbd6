// Package cache wraps a PriceSource with a Redis read-through cache.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/diillson/cloud-price-comparator/internal/domain/entity"
	"github.com/diillson/cloud-price-comparator/internal/domain/repository"
	"github.com/diillson/cloud-price-comparator/internal/shared/types"
	"github.com/redis/go-redis/v9"
)

// Default time to live of cached entries.
const (
	DefaultPriceTTL   = time.Hour
	DefaultCatalogTTL = 24 * time.Hour
)

// CachedSource serves prices and catalogs from Redis when present and falls
// through to the wrapped source otherwise. Redis errors never fail a fetch.
type CachedSource struct {
	source     repository.PriceSource
	client     redis.Cmdable
	priceTTL   time.Duration
	catalogTTL time.Duration
	console    types.ConsoleInterface

	warnOnce sync.Once
}

var _ repository.PriceSource = (*CachedSource)(nil)

// NewCachedSource wraps source. Non-positive TTLs use the defaults.
func NewCachedSource(
	source repository.PriceSource,
	client redis.Cmdable,
	priceTTL, catalogTTL time.Duration,
	console types.ConsoleInterface,
) *CachedSource {
	if priceTTL <= 0 {
		priceTTL = DefaultPriceTTL
	}
	if catalogTTL <= 0 {
		catalogTTL = DefaultCatalogTTL
	}
	return &CachedSource{
		source:     source,
		client:     client,
		priceTTL:   priceTTL,
		catalogTTL: catalogTTL,
		console:    console,
	}
}

// NewClient parses a redis:// URL and returns a client.
func NewClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (c *CachedSource) Provider() entity.Provider {
	return c.source.Provider()
}

// PriceKey is the cache key of a price lookup.
func PriceKey(provider entity.Provider, scope, instanceType, region string) string {
	return fmt.Sprintf("compute:%s:%s:%s:%s", provider, scope, instanceType, region)
}

// CatalogKey is the cache key of a region or instance-type listing.
func CatalogKey(kind string, provider entity.Provider, scope string) string {
	return fmt.Sprintf("%s:%s:%s", kind, provider, scope)
}

func (c *CachedSource) FetchPrices(ctx context.Context, instanceType, region, scope string) ([]entity.RawPriceEntry, error) {
	key := PriceKey(c.Provider(), scope, instanceType, region)

	var cached []entity.RawPriceEntry
	if c.get(ctx, key, &cached) {
		return cached, nil
	}

	entries, err := c.source.FetchPrices(ctx, instanceType, region, scope)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, entries, c.priceTTL)
	return entries, nil
}

func (c *CachedSource) FetchRegions(ctx context.Context, scope string) ([]entity.RawCatalogEntry, error) {
	return c.catalog(ctx, "regions", scope, c.source.FetchRegions)
}

func (c *CachedSource) FetchInstanceTypes(ctx context.Context, scope string) ([]entity.RawCatalogEntry, error) {
	return c.catalog(ctx, "instance_types", scope, c.source.FetchInstanceTypes)
}

func (c *CachedSource) catalog(
	ctx context.Context,
	kind, scope string,
	fetch func(context.Context, string) ([]entity.RawCatalogEntry, error),
) ([]entity.RawCatalogEntry, error) {
	key := CatalogKey(kind, c.Provider(), scope)

	var cached []entity.RawCatalogEntry
	if c.get(ctx, key, &cached) {
		return cached, nil
	}

	entries, err := fetch(ctx, scope)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, entries, c.catalogTTL)
	return entries, nil
}

// get decodes numbers as json.Number so prices keep their precision.
func (c *CachedSource) get(ctx context.Context, key string, out interface{}) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.warn(err)
		}
		return false
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return false
	}
	return true
}

func (c *CachedSource) set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.warn(err)
	}
}

func (c *CachedSource) warn(err error) {
	if c.console == nil {
		return
	}
	c.warnOnce.Do(func() {
		c.console.LogWarning("Redis cache unavailable, querying providers directly: %s", err)
	})
}
