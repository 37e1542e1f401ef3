package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionStore resolves opaque bearer tokens to identities. How tokens
// reach clients is the login flow's business, not the storefront's.
type SessionStore interface {
	Create(ctx context.Context, id Identity, ttl time.Duration) (string, error)
	Get(ctx context.Context, token string) (Identity, error)
	Delete(ctx context.Context, token string) error
}

type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) Create(ctx context.Context, id Identity, ttl time.Duration) (string, error) {
	token := uuid.New().String()

	data, err := json.Marshal(id)
	if err != nil {
		return "", fmt.Errorf("marshal identity failed: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(token), data, ttl).Err(); err != nil {
		return "", fmt.Errorf("redis set failed: %w", err)
	}

	return token, nil
}

func (s *RedisSessionStore) Get(ctx context.Context, token string) (Identity, error) {
	data, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Identity{}, ErrSessionNotFound
	}
	if err != nil {
		return Identity{}, fmt.Errorf("redis get failed: %w", err)
	}

	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return Identity{}, fmt.Errorf("unmarshal identity failed: %w", err)
	}

	return id, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}

	return nil
}

func sessionKey(token string) string {
	return "session:" + token
}
