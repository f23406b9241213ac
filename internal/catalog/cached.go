package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/dine-in-preorder/internal/cache"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/models"
)

// CachedCatalog is a read-through cache in front of another Catalog.
// Empty results are never stored: an empty result usually means the upstream
// read failed, and caching it would hide a recovered catalog.
type CachedCatalog struct {
	inner  Catalog
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedCatalog(inner Catalog, c cache.Cache, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{
		inner:  inner,
		cache:  c,
		ttl:    ttl,
		logger: slog.Default().With(slog.String("component", "catalog_cache")),
	}
}

func (c *CachedCatalog) ListRestaurants(ctx context.Context) []models.Restaurant {
	key := cache.RestaurantsKey()

	var restaurants []models.Restaurant
	if c.lookup(ctx, key, &restaurants) {
		return restaurants
	}

	restaurants = c.inner.ListRestaurants(ctx)
	if len(restaurants) > 0 {
		c.store(ctx, key, restaurants)
	}

	return restaurants
}

func (c *CachedCatalog) GetMenu(ctx context.Context, restaurantID string) []models.MenuItem {
	key := cache.MenuKey(restaurantID)

	var menu []models.MenuItem
	if c.lookup(ctx, key, &menu) {
		return menu
	}

	menu = c.inner.GetMenu(ctx, restaurantID)
	if len(menu) > 0 {
		c.store(ctx, key, menu)
	}

	return menu
}

// InvalidateRestaurants drops the cached list so the next read goes upstream.
// Menus are left to expire.
func (c *CachedCatalog) InvalidateRestaurants(ctx context.Context) error {
	return c.cache.Invalidate(ctx, cache.RestaurantsKey())
}

func (c *CachedCatalog) lookup(ctx context.Context, key string, dest any) bool {
	found, err := c.cache.Get(ctx, key, dest)
	if err != nil {
		c.logger.Warn("Catalog cache read failed", slog.String("key", key), slog.Any("error", err))
		return false
	}

	return found
}

func (c *CachedCatalog) store(ctx context.Context, key string, value any) {
	if err := c.cache.Set(ctx, key, value, c.ttl); err != nil {
		c.logger.Warn("Catalog cache write failed", slog.String("key", key), slog.Any("error", err))
	}
}
