// Package store holds the gorm-backed persistence for users and notes.
package store

import (
	"context" // Context for cache calls
	"fmt"     // Key formatting
	"strings" // Key joining for logs
	"time"    // Cache TTL

	"github.com/sirupsen/logrus" // Logging library

	"notes_system/internal/utils" // Cache interface
)

func noteKey(id uint) string { return fmt.Sprintf("note:%d", id) }

func ownerNotesKey(ownerID uint) string { return fmt.Sprintf("notes:user:%d", ownerID) }

func orNop(cache utils.Cache) utils.Cache {
	if cache == nil {
		return utils.NopCache{} // Caching disabled
	}
	return cache
}

// cacheGet reads key into dest. A cache error counts as a miss.
func cacheGet(ctx context.Context, cache utils.Cache, key string, dest any) bool {
	found, err := cache.Get(ctx, key, dest) // Try the cache first
	if err != nil {
		cacheFailed("read", key, err)
		return false
	}
	return found
}

// cacheSet stores value under key; failures are logged and otherwise ignored.
func cacheSet(ctx context.Context, cache utils.Cache, key string, value any, ttl time.Duration) {
	if err := cache.Set(ctx, key, value, ttl); err != nil {
		cacheFailed("write", key, err)
	}
}

// invalidate drops cache keys. Stale entries left by a failure expire with their TTL.
func invalidate(ctx context.Context, cache utils.Cache, keys ...string) {
	if err := cache.Delete(ctx, keys...); err != nil {
		cacheFailed("invalidate", strings.Join(keys, ","), err)
	}
}

func cacheFailed(op, key string, err error) {
	logrus.WithFields(logrus.Fields{
		"op":    op,          // Cache operation
		"key":   key,         // Cache key(s)
		"error": err.Error(), // Error message
	}).Warn("Cache operation failed")
}
