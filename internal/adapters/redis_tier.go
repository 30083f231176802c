package adapters

import (
	"github.com/go-redis/redis"
)

// RedisTier adapts a redis client to the shared blob tier: one key per
// collection, no expiration on the keys themselves.
type RedisTier struct {
	client *redis.Client
}

func NewRedisTier(client *redis.Client) *RedisTier {
	return &RedisTier{client: client}
}

func (r *RedisTier) Get(key string) (string, error) {
	val, err := r.client.Get(key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *RedisTier) Set(key, value string) error {
	return r.client.Set(key, value, 0).Err()
}

func (r *RedisTier) Ping() error {
	return r.client.Ping().Err()
}
