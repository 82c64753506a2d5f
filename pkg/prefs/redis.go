package prefs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kittclouds/kittjournal/internal/errs"
)

// DefaultRedisHash is the hash that holds all preference fields.
const DefaultRedisHash = "kittjournal:prefs"

// RedisStore keeps preferences as fields of a single Redis hash.
type RedisStore struct {
	client *redis.Client
	hash   string
}

// NewRedisStore connects to redisURI and verifies the connection.
// An empty hash selects DefaultRedisHash.
func NewRedisStore(ctx context.Context, redisURI, hash string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURI)
	if err != nil {
		return nil, fmt.Errorf("prefs: parse redis uri: %w", err)
	}
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, errs.Storage("connect redis", err)
	}

	return NewRedisStoreWithClient(client, hash), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, hash string) *RedisStore {
	if hash == "" {
		hash = DefaultRedisHash
	}
	return &RedisStore{client: client, hash: hash}
}

func (r *RedisStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := r.client.HGet(ctx, r.hash, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errs.Storage("redis load", err)
	}
	return v, true, nil
}

func (r *RedisStore) Save(ctx context.Context, key string, value []byte) error {
	return errs.Storage("redis save", r.client.HSet(ctx, r.hash, key, value).Err())
}

func (r *RedisStore) Remove(ctx context.Context, key string) error {
	return errs.Storage("redis remove", r.client.HDel(ctx, r.hash, key).Err())
}

func (r *RedisStore) Keys(ctx context.Context) ([]string, error) {
	keys, err := r.client.HKeys(ctx, r.hash).Result()
	if err != nil {
		return nil, errs.Storage("redis keys", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes the underlying client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
