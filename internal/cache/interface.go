// Package cache holds catalog reads in redis so that browsing survives short
// catalog outages and repeated menu views skip the backend.
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache stores JSON documents under namespaced keys.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

const (
	Namespace            = "dinein"
	RestaurantsKeyPrefix = "restaurants"
	MenuKeyPrefix        = "menu"
)

// Key builds "dinein:<kind>:<id>".
func Key(kind string, id string) string {
	return strings.Join([]string{Namespace, kind, id}, ":")
}

func RestaurantsKey() string {
	return Key(RestaurantsKeyPrefix, "all")
}

func MenuKey(restaurantID string) string {
	return Key(MenuKeyPrefix, restaurantID)
}
