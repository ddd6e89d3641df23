package sync

import (
	"sync"
)

// ShardedMutex spreads locking over a fixed set of shards chosen by key hash,
// so unrelated keys rarely contend.
type ShardedMutex struct {
	shards [ShardCount]sync.Mutex
}

// ShardCount is the fixed number of lock shards. Callers that keep per-shard
// state index it with Shard.
const ShardCount = 32

func NewShardedMutex() *ShardedMutex {
	return &ShardedMutex{}
}

// Lock acquires the shard for key. Empty keys map to shard 0.
func (m *ShardedMutex) Lock(key string) {
	m.shards[m.shardFor(key)].Lock()
}

// Unlock releases the shard for key.
func (m *ShardedMutex) Unlock(key string) {
	m.shards[m.shardFor(key)].Unlock()
}

// LockAll acquires every shard in index order. Used by whole-map maintenance
// such as expiry sweeps and capacity eviction.
func (m *ShardedMutex) LockAll() {
	for i := range m.shards {
		m.shards[i].Lock()
	}
}

// UnlockAll releases every shard in reverse order.
func (m *ShardedMutex) UnlockAll() {
	for i := len(m.shards) - 1; i >= 0; i-- {
		m.shards[i].Unlock()
	}
}

// Shard returns the shard index guarding key, in [0, ShardCount).
func (m *ShardedMutex) Shard(key string) int {
	return m.shardFor(key)
}

func (m *ShardedMutex) shardFor(key string) int {
	if key == "" {
		return 0
	}
	return int(hashString(key) % uint32(len(m.shards)))
}

func hashString(s string) uint32 {
	var h uint32
	for i := 0; i < len(s); i++ {
		h = h*31 + uint32(s[i])
	}
	return h
}
