package cache

import (
	"context"
	"encoding/json"
	"fmt"
)

// PassthroughListCache stores nothing and always calls the loader. Used when Redis
// is unavailable so reads keep working from the database.
type PassthroughListCache struct{}

// NewPassthroughListCache creates a cache that never caches
func NewPassthroughListCache() *PassthroughListCache {
	return &PassthroughListCache{}
}

// GetOrLoad runs load and copies its result into dst through the same JSON encoding
// the Redis cache uses, so callers see identical values either way
func (PassthroughListCache) GetOrLoad(ctx context.Context, key string, dst interface{}, load func(ctx context.Context) (interface{}, error)) error {
	value, err := load(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value for %s: %w", key, err)
	}
	return json.Unmarshal(payload, dst)
}

// InvalidatePrefix has nothing to drop
func (PassthroughListCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	return nil
}
