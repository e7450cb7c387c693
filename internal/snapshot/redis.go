package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/StorefrontGo/internal/domain"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
)

// RedisStore keeps the cart snapshot in a single Redis key. The snapshot has
// no TTL: a cart abandoned for months must still restore.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a Redis-backed snapshot store.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{
		client: client,
		key:    key,
	}
}

// Load restores the cart snapshot from Redis.
func (s *RedisStore) Load(ctx context.Context) (domain.LocalCart, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("cart snapshot", s.key)
		}
		return nil, fmt.Errorf("redis get snapshot: %w", err)
	}
	return decode(data)
}

// Save overwrites the cart snapshot in Redis.
func (s *RedisStore) Save(ctx context.Context, cart domain.LocalCart) error {
	data, err := encode(cart)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set snapshot: %w", err)
	}
	return nil
}

// Clear removes the cart snapshot from Redis.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del snapshot: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
