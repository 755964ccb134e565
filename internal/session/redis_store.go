package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// redisStore keeps admin sessions server-side so logout revokes them immediately
type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis-backed session store
func NewRedisStore(redisURL string) (*redisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &redisStore{
		client: client,
		prefix: "admin_session:",
	}, nil
}

func (s *redisStore) key(token string) string {
	return s.prefix + token
}

// Issue stores a new random session id with the given lifetime
func (s *redisStore) Issue(ctx context.Context, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	value := time.Now().UTC().Format(time.RFC3339)
	if err := s.client.Set(ctx, s.key(token), value, ttl).Err(); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return token, nil
}

// Validate reports whether the session id is still stored
func (s *redisStore) Validate(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidSession
	}
	err := s.client.Get(ctx, s.key(token)).Err()
	if errors.Is(err, redis.Nil) {
		return ErrInvalidSession
	}
	if err != nil {
		return fmt.Errorf("lookup session: %w", err)
	}
	return nil
}

// Revoke deletes a session id
func (s *redisStore) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (s *redisStore) Close() error {
	return s.client.Close()
}
