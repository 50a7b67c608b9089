package store

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dominggo/multi-account-multi-platform/internal/domain"
)

// RedisStore keeps credential blobs in Redis, keyed by hashed account ID.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// Put stores the credential blob without expiry; sessions live until revoked.
func (s *RedisStore) Put(ctx context.Context, accountID string, blob []byte) error {
	if err := s.client.Set(ctx, s.key(accountID), blob, 0).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Get loads the credential blob for an account.
func (s *RedisStore) Get(ctx context.Context, accountID string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(accountID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return data, nil
}

// Delete removes the stored blob; no-op if absent.
func (s *RedisStore) Delete(ctx context.Context, accountID string) error {
	if err := s.client.Del(ctx, s.key(accountID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close closes the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(accountID string) string {
	hash := sha256.Sum256([]byte(accountID))
	return fmt.Sprintf("telegram:session:%x", hash[:])
}

// Ensure RedisStore implements domain.SessionStore interface
var _ domain.SessionStore = (*RedisStore)(nil)
