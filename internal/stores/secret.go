package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrSecretNotFound         = errors.New("secret not found")
	ErrSecretStoreUnavailable = errors.New("secret store unavailable")
)

// RedisSecretStore keeps short-lived secrets as plain Redis strings with a TTL.
type RedisSecretStore struct {
	redis redis.UniversalClient
}

func NewRedisSecretStore(redisClient redis.UniversalClient) *RedisSecretStore {
	return &RedisSecretStore{redis: redisClient}
}

// Put replaces any existing value for key and re-arms its TTL.
func (s *RedisSecretStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("secret ttl must be > 0")
	}
	if err := s.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSecretStoreUnavailable, err)
	}
	return nil
}

func (s *RedisSecretStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrSecretNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrSecretStoreUnavailable, err)
	}
	return value, nil
}

// Delete reports true only when this call removed a live value.
func (s *RedisSecretStore) Delete(ctx context.Context, key string) (bool, error) {
	n, err := s.redis.Del(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrSecretStoreUnavailable, err)
	}
	return n > 0, nil
}

// DeleteIfEqual removes key only while it still holds value. It reports false
// when the key is absent or was replaced by a newer secret.
func (s *RedisSecretStore) DeleteIfEqual(ctx context.Context, key, value string) (bool, error) {
	const maxRetries = 4

	for i := 0; i < maxRetries; i++ {
		removed := false
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			current, err := tx.Get(ctx, key).Result()
			if err != nil {
				return err
			}
			if current != value {
				return nil
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			if err != nil {
				return err
			}
			removed = true
			return nil
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return false, nil
			}
			return false, fmt.Errorf("%w: %v", ErrSecretStoreUnavailable, err)
		}
		return removed, nil
	}
	return false, fmt.Errorf("%w: contended key %s", ErrSecretStoreUnavailable, key)
}
