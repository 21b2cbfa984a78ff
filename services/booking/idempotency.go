package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const idempotencyPrefix = "booking:idem:"

// IdempotencyTTL bounds how long a creation key is remembered.
const IdempotencyTTL = 24 * time.Hour

// IdempotencyStore remembers which booking a client request key produced.
type IdempotencyStore interface {
	// Reserve claims key for a new booking id. It returns the id saved
	// earlier and false when the key was already used.
	Reserve(ctx context.Context, key, bookingID string) (string, bool, error)
	Forget(ctx context.Context, key string) error
}

// RedisIdempotencyStore keeps keys in Redis with SETNX.
type RedisIdempotencyStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisIdempotencyStore(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{Client: client, TTL: IdempotencyTTL}
}

func (s *RedisIdempotencyStore) Reserve(ctx context.Context, key, bookingID string) (string, bool, error) {
	ok, err := s.Client.SetNX(ctx, idempotencyPrefix+key, bookingID, s.TTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	if ok {
		return bookingID, true, nil
	}
	existing, err := s.Client.Get(ctx, idempotencyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between the two calls; treat it as fresh.
		return s.Reserve(ctx, key, bookingID)
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	return existing, false, nil
}

func (s *RedisIdempotencyStore) Forget(ctx context.Context, key string) error {
	return s.Client.Del(ctx, idempotencyPrefix+key).Err()
}
