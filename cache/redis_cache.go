package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const scanBatch = 100

// RedisListCache is a read-through cache for hot lists backed by Redis.
// Concurrent misses on the same key share one load.
type RedisListCache struct {
	client *redis.Client
	ttl    time.Duration
	loads  singleflight.Group
}

// NewRedisListCache creates a cache storing JSON values with the given TTL
func NewRedisListCache(client *redis.Client, ttl time.Duration) *RedisListCache {
	return &RedisListCache{
		client: client,
		ttl:    ttl,
	}
}

// NewClient connects to Redis and verifies the connection
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// GetOrLoad fills dst from Redis, or runs load and stores its result.
// A Redis failure falls back to load so the cache never blocks a read.
func (c *RedisListCache) GetOrLoad(ctx context.Context, key string, dst interface{}, load func(ctx context.Context) (interface{}, error)) error {
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, dst); err == nil {
			return nil
		}
		log.WithField("key", key).Warn("Discarding undecodable cache entry")
	case err != redis.Nil:
		log.WithFields(log.Fields{
			"key":   key,
			"error": err,
		}).Warn("Redis read failed, loading from source")
	}

	encoded, err, _ := c.loads.Do(key, func() (interface{}, error) {
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		payload, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode cache value: %w", err)
		}
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			log.WithFields(log.Fields{
				"key":   key,
				"error": err,
			}).Warn("Failed to store cache entry")
		}
		return payload, nil
	})
	if err != nil {
		return err
	}

	return json.Unmarshal(encoded.([]byte), dst)
}

// InvalidatePrefix deletes every key starting with prefix
func (c *RedisListCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	deleted := 0
	for {
		keys, next, err := c.client.Scan(ctx, cursor, prefix+"*", scanBatch).Result()
		if err != nil {
			return fmt.Errorf("failed to scan cache keys: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete cache keys: %w", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	log.WithFields(log.Fields{
		"prefix":  prefix,
		"deleted": deleted,
	}).Debug("Invalidated cache entries")
	return nil
}
