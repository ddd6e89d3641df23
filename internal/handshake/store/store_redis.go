package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"verigate/internal/handshake/models"
	"verigate/pkg/platform/sentinel"
)

const handshakeKeyPrefix = "handshake:"

// RedisStore shares handshakes across instances. Expiry is delegated to Redis
// key TTLs and single use to GETDEL.
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed handshake store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Save stores h with SET NX and an expiry matching its TTL.
func (s *RedisStore) Save(ctx context.Context, h *models.Handshake) error {
	if h == nil || h.Token == "" {
		return fmt.Errorf("handshake token is required")
	}
	ttl := h.ExpiresAt.Sub(h.CreatedAt)
	if ttl <= 0 {
		return fmt.Errorf("handshake ttl must be positive")
	}
	payload, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("marshal handshake: %w", err)
	}
	ok, err := s.client.SetNX(ctx, handshakeKeyPrefix+h.Token, payload, ttl).Result()
	if err != nil {
		return fmt.Errorf("save handshake: %w", err)
	}
	if !ok {
		return fmt.Errorf("handshake token already issued: %w", sentinel.ErrConflict)
	}
	return nil
}

// Consume atomically reads and deletes the handshake for token.
func (s *RedisStore) Consume(ctx context.Context, token string, now time.Time) (*models.Handshake, error) {
	raw, err := s.client.GetDel(ctx, handshakeKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("handshake token: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("consume handshake: %w", err)
	}
	var h models.Handshake
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, fmt.Errorf("decode handshake: %w", err)
	}
	if h.IsExpired(now) {
		return nil, fmt.Errorf("handshake token: %w", sentinel.ErrExpired)
	}
	return &h, nil
}

// DeleteExpired is a no-op: Redis expires keys itself.
func (s *RedisStore) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}
