package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jcmexdev/food-delivery/internal/order-service/domain"
	"github.com/jcmexdev/food-delivery/internal/order-service/ports"
	"github.com/jcmexdev/food-delivery/internal/pkg/cache"
)

// CachedCatalog is a read-through cache in front of a Catalog. Cache
// failures are logged and fall through to the wrapped catalog.
type CachedCatalog struct {
	next  ports.Catalog
	cache cache.Cache
	ttl   time.Duration
}

var _ ports.Catalog = (*CachedCatalog)(nil)

func NewCachedCatalog(next ports.Catalog, c cache.Cache, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{next: next, cache: c, ttl: ttl}
}

func (c *CachedCatalog) GetRestaurant(ctx context.Context, restaurantID string) (*domain.Restaurant, error) {
	key := c.cache.GenerateKey("restaurant", restaurantID)
	var cached domain.Restaurant
	if c.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	r, err := c.next.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, r)
	return r, nil
}

func (c *CachedCatalog) GetMenu(ctx context.Context, restaurantID string) ([]domain.MenuItem, error) {
	key := c.cache.GenerateKey("menu", restaurantID)
	var cached []domain.MenuItem
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}

	menu, err := c.next.GetMenu(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, menu)
	return menu, nil
}

func (c *CachedCatalog) lookup(ctx context.Context, key string, out any) bool {
	raw, err := c.cache.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "catalog cache read failed", "key", key, "error", err)
		return false
	}
	if raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		slog.WarnContext(ctx, "catalog cache entry unreadable", "key", key, "error", err)
		return false
	}
	return true
}

func (c *CachedCatalog) store(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, string(b), c.ttl); err != nil {
		slog.WarnContext(ctx, "catalog cache write failed", "key", key, "error", err)
	}
}
