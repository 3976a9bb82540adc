package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

var ctx = context.Background()

// RedisStore is a Redis-backed Store for multi-instance deployments.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Store backed by the Redis instance at addr.
func NewRedisStore(addr string) *RedisStore {
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // no password by default
		DB:       0,  // use default DB
	})
	return &RedisStore{client: client}
}

// Ping verifies the Redis connection.
func (r *RedisStore) Ping() error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Set(key string, value string, ttl time.Duration) {
	r.client.Set(ctx, key, value, ttl)
}

func (r *RedisStore) Get(key string) (string, bool) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (r *RedisStore) Delete(key string) {
	r.client.Del(ctx, key)
}
