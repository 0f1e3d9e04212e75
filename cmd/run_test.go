package cmd

import (
	"context"
	"testing"

	"guardwars/cache"
	"guardwars/config"

	"github.com/stretchr/testify/assert"
)

func TestNewListCache_FallsBackWithoutRedis(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.RedisAddr = "127.0.0.1:1"

	listCache, closeCache := newListCache(context.Background(), cfg)
	defer closeCache()

	assert.IsType(t, &cache.PassthroughListCache{}, listCache)

	var rows []int
	err := listCache.GetOrLoad(context.Background(), "rating:top:1", &rows, func(ctx context.Context) (interface{}, error) {
		return []int{1, 2}, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 2}, rows)
}
