// Package redisrepo persists session values in redis, one string key per value.
package redisrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jrsteele09/backoffice-console/session"
	"github.com/redis/go-redis/v9"
)

var _ session.Repo = (*RedisRepo)(nil)

type RedisRepo struct {
	client redis.Cmdable
	prefix string
}

// New returns a repo storing each value under "<prefix>:<key>"
func New(client redis.Cmdable, prefix string) *RedisRepo {
	return &RedisRepo{client: client, prefix: prefix}
}

func (r *RedisRepo) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

func (r *RedisRepo) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("[RedisRepo Get] %s: %w", key, err)
	}
	return v, true, nil
}

func (r *RedisRepo) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("[RedisRepo Set] %s: %w", key, err)
	}
	return nil
}

func (r *RedisRepo) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("[RedisRepo Delete] %s: %w", key, err)
	}
	return nil
}
