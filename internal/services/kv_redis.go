package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
)

// RedisKVStore keeps account containers in redis hashes, one hash per
// container node.
type RedisKVStore struct {
	client *redis.Client
	prefix string
}

func NewRedisKVStore(client *redis.Client, prefix string) *RedisKVStore {
	if prefix == "" {
		prefix = "mmo:kv"
	}
	return &RedisKVStore{
		client: client,
		prefix: prefix,
	}
}

// Ping verifies the redis connection.
func (s *RedisKVStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pinging redis: %w", err)
	}
	return nil
}

func (s *RedisKVStore) Container(accountID string) KVContainer {
	return &redisContainer{
		store: s,
		path:  s.prefix + ":" + accountID,
	}
}

type redisContainer struct {
	store *RedisKVStore
	path  string
}

func (c *redisContainer) Child(name string) KVContainer {
	return &redisContainer{
		store: c.store,
		path:  c.path + ":" + name,
	}
}

func (c *redisContainer) Has(ctx context.Context, key string) (bool, error) {
	ok, err := c.store.client.HExists(ctx, c.path, key).Result()
	if err != nil {
		return false, fmt.Errorf("checking key %q: %w", key, err)
	}
	return ok, nil
}

func (c *redisContainer) GetString(ctx context.Context, key string) (string, bool, error) {
	v, err := c.store.client.HGet(ctx, c.path, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading key %q: %w", key, err)
	}
	return v, true, nil
}

func (c *redisContainer) GetBool(ctx context.Context, key string) (bool, bool, error) {
	v, ok, err := c.GetString(ctx, key)
	if err != nil || !ok {
		return false, ok, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false, fmt.Errorf("parsing key %q: %w", key, err)
	}
	return b, true, nil
}

func (c *redisContainer) GetInt64(ctx context.Context, key string) (int64, bool, error) {
	v, ok, err := c.GetString(ctx, key)
	if err != nil || !ok {
		return 0, ok, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parsing key %q: %w", key, err)
	}
	return n, true, nil
}

func (c *redisContainer) SetString(ctx context.Context, key, value string) error {
	if err := c.store.client.HSet(ctx, c.path, key, value).Err(); err != nil {
		return fmt.Errorf("writing key %q: %w", key, err)
	}
	return nil
}

func (c *redisContainer) SetBool(ctx context.Context, key string, value bool) error {
	return c.SetString(ctx, key, strconv.FormatBool(value))
}

func (c *redisContainer) SetInt64(ctx context.Context, key string, value int64) error {
	return c.SetString(ctx, key, strconv.FormatInt(value, 10))
}

func (c *redisContainer) Delete(ctx context.Context, key string) error {
	if err := c.store.client.HDel(ctx, c.path, key).Err(); err != nil {
		return fmt.Errorf("deleting key %q: %w", key, err)
	}
	return nil
}
