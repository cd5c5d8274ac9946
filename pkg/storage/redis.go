package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisKV stores keys as plain Redis strings, optionally under a prefix.
type RedisKV struct {
	Client *redis.Client
	Prefix string
}

// NewRedisKV connects using a redis:// URL.
func NewRedisKV(url, prefix string) (*RedisKV, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisKV{Client: redis.NewClient(opt), Prefix: prefix}, nil
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.Client.Get(ctx, r.Prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, backendErr("get", key, err)
	}
	return v, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	if err := r.Client.Set(ctx, r.Prefix+key, value, 0).Err(); err != nil {
		return backendErr("set", key, err)
	}
	return nil
}

func (r *RedisKV) Close() error {
	return r.Client.Close()
}
