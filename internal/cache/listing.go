package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"admarket/internal/model"
)

const (
	// ListingCachePrefix is the key prefix for cached category listings
	ListingCachePrefix = "listing:"

	// ListingCacheTTL keeps listings fresh without hammering the database
	ListingCacheTTL = 60 * time.Second
)

// ListingCache caches rendered category listings. Using an interface keeps the
// service layer testable without a Redis instance.
type ListingCache interface {
	// Get returns the cached listing for a key, or (nil, false) on miss.
	Get(ctx context.Context, key string) ([]model.AdListItem, bool, error)

	// Set stores a listing under key with the standard TTL.
	Set(ctx context.Context, key string, items []model.AdListItem) error

	// Invalidate drops all listing keys. Called on any ad mutation; listings
	// span categories ("all" plus per-category), so everything goes.
	Invalidate(ctx context.Context) error
}

// ListingKey builds the cache key for a category filter; nil means "all".
func ListingKey(category *int) string {
	if category == nil {
		return ListingCachePrefix + "all"
	}
	return fmt.Sprintf("%s%d", ListingCachePrefix, *category)
}

type redisListingCache struct {
	client *redis.Client
}

// NewListingCache creates a Redis-backed listing cache.
func NewListingCache(client *redis.Client) ListingCache {
	return &redisListingCache{client: client}
}

func (c *redisListingCache) Get(ctx context.Context, key string) ([]model.AdListItem, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("listing cache get: %w", err)
	}

	var items []model.AdListItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false, fmt.Errorf("listing cache decode: %w", err)
	}
	return items, true, nil
}

func (c *redisListingCache) Set(ctx context.Context, key string, items []model.AdListItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("listing cache encode: %w", err)
	}
	if err := c.client.Set(ctx, key, data, ListingCacheTTL).Err(); err != nil {
		return fmt.Errorf("listing cache set: %w", err)
	}
	return nil
}

func (c *redisListingCache) Invalidate(ctx context.Context) error {
	keys := []string{ListingKey(nil)}
	for _, cat := range []int{model.CategoryChildren, model.CategoryAdult, model.CategoryVintage} {
		category := cat
		keys = append(keys, ListingKey(&category))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("listing cache invalidate: %w", err)
	}
	return nil
}
