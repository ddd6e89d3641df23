package store

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"verigate/internal/handshake/models"
	"verigate/pkg/platform/sentinel"
	vsync "verigate/pkg/platform/sync"
)

// DefaultCapacity bounds the number of live handshakes held in memory.
const DefaultCapacity = 10_000

// InMemoryStore keeps handshakes in per-shard maps guarded by a ShardedMutex.
// Consume on one token never contends with Save on an unrelated token.
type InMemoryStore struct {
	locks    *vsync.ShardedMutex
	shards   [vsync.ShardCount]map[string]models.Handshake
	size     atomic.Int64
	capacity int64
	evicted  atomic.Int64
}

// NewInMemory constructs a store bounded to capacity live handshakes.
func NewInMemory(capacity int) *InMemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	s := &InMemoryStore{
		locks:    vsync.NewShardedMutex(),
		capacity: int64(capacity),
	}
	for i := range s.shards {
		s.shards[i] = make(map[string]models.Handshake)
	}
	return s
}

// Save stores h. When the store is full it first drops expired handshakes,
// then evicts the oldest live one.
func (s *InMemoryStore) Save(_ context.Context, h *models.Handshake) error {
	if h == nil || h.Token == "" {
		return fmt.Errorf("handshake token is required")
	}

	idx := s.locks.Shard(h.Token)
	s.locks.Lock(h.Token)
	if _, exists := s.shards[idx][h.Token]; exists {
		s.shards[idx][h.Token] = *h
		s.locks.Unlock(h.Token)
		return nil
	}
	if s.size.Add(1) <= s.capacity {
		s.shards[idx][h.Token] = *h
		s.locks.Unlock(h.Token)
		return nil
	}
	s.size.Add(-1)
	s.locks.Unlock(h.Token)

	s.locks.LockAll()
	defer s.locks.UnlockAll()
	s.sweepLocked(h.CreatedAt)
	for s.size.Load() >= s.capacity {
		if !s.evictOldestLocked() {
			break
		}
	}
	if _, exists := s.shards[idx][h.Token]; !exists {
		s.size.Add(1)
	}
	s.shards[idx][h.Token] = *h
	return nil
}

// Consume atomically removes and returns the handshake for token.
// Unknown or already-consumed tokens yield sentinel.ErrNotFound; a token past
// its TTL is removed and yields sentinel.ErrExpired.
func (s *InMemoryStore) Consume(_ context.Context, token string, now time.Time) (*models.Handshake, error) {
	idx := s.locks.Shard(token)
	s.locks.Lock(token)
	h, ok := s.shards[idx][token]
	if ok {
		delete(s.shards[idx], token)
		s.size.Add(-1)
	}
	s.locks.Unlock(token)

	if !ok {
		return nil, fmt.Errorf("handshake token: %w", sentinel.ErrNotFound)
	}
	if h.IsExpired(now) {
		return nil, fmt.Errorf("handshake token: %w", sentinel.ErrExpired)
	}
	return &h, nil
}

// DeleteExpired removes every handshake past its TTL at now.
func (s *InMemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.locks.LockAll()
	defer s.locks.UnlockAll()
	return s.sweepLocked(now), nil
}

// Len reports the number of live handshakes, expired ones included until swept.
func (s *InMemoryStore) Len() int {
	return int(s.size.Load())
}

// Evicted reports how many live handshakes were dropped to make room.
func (s *InMemoryStore) Evicted() int64 {
	return s.evicted.Load()
}

func (s *InMemoryStore) sweepLocked(now time.Time) int {
	removed := 0
	for i := range s.shards {
		for token, h := range s.shards[i] {
			if h.IsExpired(now) {
				delete(s.shards[i], token)
				removed++
			}
		}
	}
	s.size.Add(int64(-removed))
	return removed
}

func (s *InMemoryStore) evictOldestLocked() bool {
	var (
		oldestShard = -1
		oldestToken string
		oldestAt    time.Time
	)
	for i := range s.shards {
		for token, h := range s.shards[i] {
			if oldestShard == -1 || h.CreatedAt.Before(oldestAt) {
				oldestShard, oldestToken, oldestAt = i, token, h.CreatedAt
			}
		}
	}
	if oldestShard == -1 {
		return false
	}
	delete(s.shards[oldestShard], oldestToken)
	s.size.Add(-1)
	s.evicted.Add(1)
	return true
}
