package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "challenge:"

// RedisStore keeps pending challenges in Redis so callbacks can land on any
// instance. Expiry is delegated to Redis TTLs.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Save(ctx context.Context, ch Challenge) error {
	data, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("marshaling challenge: %w", err)
	}
	return r.client.Set(ctx, keyPrefix+ch.State, data, r.ttl).Err()
}

func (r *RedisStore) Take(ctx context.Context, stateNonce string) (*Challenge, error) {
	val, err := r.client.GetDel(ctx, keyPrefix+stateNonce).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading challenge: %w", err)
	}

	var ch Challenge
	if err := json.Unmarshal([]byte(val), &ch); err != nil {
		return nil, fmt.Errorf("unmarshaling challenge: %w", err)
	}
	return &ch, nil
}
