package repository

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// SchemaCache mirrors schema documents for fast reads. It is never the source of truth.
type SchemaCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, doc []byte) error
}

type redisSchemaCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSchemaCache creates a SchemaCache backed by Redis. A zero ttl keeps entries forever.
func NewRedisSchemaCache(client *redis.Client, ttl time.Duration) SchemaCache {
	return &redisSchemaCache{client: client, ttl: ttl}
}

func (c *redisSchemaCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, cacheKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *redisSchemaCache) Set(ctx context.Context, key string, doc []byte) error {
	return c.client.Set(ctx, cacheKey(key), doc, c.ttl).Err()
}

func cacheKey(key string) string {
	return "schema:" + key
}

type noopSchemaCache struct{}

// NewNoopSchemaCache returns a cache that stores nothing
func NewNoopSchemaCache() SchemaCache {
	return noopSchemaCache{}
}

func (noopSchemaCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (noopSchemaCache) Set(context.Context, string, []byte) error { return nil }
