package kvstore

import (
	"context"
	"errors"
	"sort"

	"github.com/redis/go-redis/v9"
)

// redisBackend stores every entry of one namespace as a field of a single
// Redis hash, so Clear is one DEL and never touches other namespaces.
type redisBackend struct {
	client *redis.Client
	hash   string
	owned  bool
}

// NewRedisBackend creates a backend over an existing client. When owned is
// true, Close also closes the client.
func NewRedisBackend(client *redis.Client, namespace string, owned bool) Backend {
	return &redisBackend{
		client: client,
		hash:   namespace + ":kv",
		owned:  owned,
	}
}

func (r *redisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.HGet(ctx, r.hash, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *redisBackend) Set(ctx context.Context, key, value string) error {
	return r.client.HSet(ctx, r.hash, key, value).Err()
}

func (r *redisBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.HDel(ctx, r.hash, keys...).Err()
}

func (r *redisBackend) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.hash).Err()
}

func (r *redisBackend) Keys(ctx context.Context) ([]string, error) {
	keys, err := r.client.HKeys(ctx, r.hash).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *redisBackend) Close() error {
	if r.owned {
		return r.client.Close()
	}
	return nil
}
