package redisstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// CounterStore backs the order sequence with a Redis hash. HINCRBY is atomic
// on the server, which is what keeps concurrent submissions from sharing a
// sequence number; the field is created at 1 on first touch.
type CounterStore struct {
	client redis.UniversalClient
}

func NewCounterStore(client redis.UniversalClient) *CounterStore {
	return &CounterStore{client: client}
}

func (s *CounterStore) Increment(ctx context.Context, key, field string) (int64, error) {
	n, err := s.client.HIncrBy(ctx, key, field, 1).Result()
	if err != nil {
		return 0, fmt.Errorf("redis counter: incr %s/%s: %w", key, field, err)
	}
	return n, nil
}
